package tasks

import (
	"errors"
	"fmt"

	"github.com/brizzai/notion-tasks-sync/internal/apperr"
	"google.golang.org/api/googleapi"
)

// wrapAPIError tags a Google API failure with kind, keeping the HTTP status.
func wrapAPIError(kind apperr.Kind, err error, msg string) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Message != "" {
			msg = fmt.Sprintf("%s: %s", msg, gerr.Message)
		}
		return apperr.New(kind, gerr.Code, msg)
	}
	return apperr.Wrap(kind, 0, err, msg)
}

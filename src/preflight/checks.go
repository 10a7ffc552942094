package preflight

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/warp-contracts/stager/src/batches"
	"github.com/warp-contracts/stager/src/content"
	"github.com/warp-contracts/stager/src/messages"
)

// Validates one content category of a batch.
// Problems with the content are returned as messages, errors are reserved for infrastructure failures.
type Check interface {
	Check(ctx context.Context, batch *batches.Batch) ([]messages.Message, error)
}

type CheckFunc func(ctx context.Context, batch *batches.Batch) ([]messages.Message, error)

func (self CheckFunc) Check(ctx context.Context, batch *batches.Batch) ([]messages.Message, error) {
	return self(ctx, batch)
}

// Attachments need a GUID and an absolute URL they can be downloaded from
func CheckAttachments() Check {
	return CheckFunc(func(ctx context.Context, batch *batches.Batch) (out []messages.Message, err error) {
		for _, a := range batch.Attachments {
			if a.GUID == "" {
				out = append(out, messages.Error(fmt.Sprintf("Attachment %q has no GUID.", a.Title)))
				continue
			}

			u, err := url.Parse(a.URL)
			if err != nil || !u.IsAbs() || u.Host == "" {
				out = append(out, messages.Error(fmt.Sprintf("Attachment %q has an invalid URL: %q.", a.Title, a.URL)).WithItem(a.GUID))
			}
		}
		return
	})
}

// Accounts need a login, missing email is reported as a warning
func CheckUsers() Check {
	return CheckFunc(func(ctx context.Context, batch *batches.Batch) (out []messages.Message, err error) {
		seen := make(map[string]bool)
		for _, a := range batch.Accounts {
			if a.Login == "" {
				out = append(out, messages.Error(fmt.Sprintf("User %q has no login.", a.GUID)).WithItem(a.GUID))
				continue
			}
			if seen[a.Login] {
				out = append(out, messages.Error(fmt.Sprintf("User login %q appears more than once.", a.Login)).WithItem(a.GUID))
			}
			seen[a.Login] = true

			if a.Email == "" {
				out = append(out, messages.Warning(fmt.Sprintf("User %q has no email.", a.Login)).WithItem(a.GUID))
			}
		}
		return
	})
}

// Posts need a GUID. A parent has to be part of the batch or already exist on this environment.
func CheckPosts(store content.Store) Check {
	return CheckFunc(func(ctx context.Context, batch *batches.Batch) (out []messages.Message, err error) {
		for _, p := range batch.Posts {
			if p.GUID == "" {
				out = append(out, messages.Error(fmt.Sprintf("Post %q has no GUID.", p.Title)))
				continue
			}

			if p.Title == "" {
				out = append(out, messages.Warning(fmt.Sprintf("Post %s has no title.", p.GUID)).WithItem(p.GUID))
			}

			if p.ParentGUID == "" || batch.Contains(p.ParentGUID) {
				continue
			}

			_, err = store.FindByGUID(ctx, p.ParentGUID)
			if errors.Is(err, content.ErrNotFound) {
				out = append(out, messages.Error(fmt.Sprintf("Post %q has a parent that is neither in the batch nor on production.", p.Title)).WithItem(p.GUID))
				err = nil
				continue
			}
			if err != nil {
				return nil, err
			}
		}
		return
	})
}

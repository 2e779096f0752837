package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/dmitrijs2005/questboard/internal/models"
)

// readFile is a test seam for os.ReadFile.
var readFile = os.ReadFile

const pictureKeyPrefix = "pictures/"

func (a *App) profile(ctx context.Context, args []string) error {
	if len(args) > 1 {
		return errUsage
	}
	userID := a.me().UserID
	if len(args) == 1 {
		userID = args[0]
	}

	rctx, cancel := a.rpc(ctx)
	defer cancel()
	p, err := a.qb.GetProfile(rctx, userID)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Name:    %s\n", p.DisplayName())
	if p.Bio != "" {
		fmt.Fprintf(a.out, "Bio:     %s\n", p.Bio)
	}
	if p.Email != "" {
		fmt.Fprintf(a.out, "Email:   %s\n", p.Email)
	}
	if p.ProfilePicture == "" {
		return nil
	}
	picture := p.ProfilePicture
	if strings.HasPrefix(picture, pictureKeyPrefix) {
		if url, err := a.qb.PictureURL(rctx, picture); err == nil {
			picture = url
		}
	}
	fmt.Fprintf(a.out, "Picture: %s\n", picture)
	return nil
}

// saveProfile writes edit and keeps the session's display name in step.
func (a *App) saveProfile(ctx context.Context, edit models.ProfileEdit) error {
	if err := edit.Validate(); err != nil {
		return err
	}
	p, err := a.qb.UpdateProfile(ctx, edit)
	if err != nil {
		return err
	}

	id := a.me()
	if name := p.DisplayName(); name != "" && name != id.DisplayName {
		id.DisplayName = name
		a.session.SignIn(id)
		saved, ok, err := a.sessions.Load(ctx)
		if err == nil && ok {
			saved.DisplayName = name
			err = a.sessions.Save(ctx, saved)
		}
		if err != nil {
			fmt.Fprintf(a.out, "warning: could not save session: %v\n", err)
		}
	}
	return nil
}

func (a *App) currentEdit(ctx context.Context) (models.ProfileEdit, error) {
	p, err := a.qb.GetProfile(ctx, a.me().UserID)
	if err != nil {
		return models.ProfileEdit{}, err
	}
	return models.ProfileEdit{Name: p.Name, Bio: p.Bio, ProfilePicture: p.ProfilePicture}, nil
}

func (a *App) editProfile(ctx context.Context, _ []string) error {
	rctx, cancel := a.rpc(ctx)
	edit, err := a.currentEdit(rctx)
	cancel()
	if err != nil {
		return err
	}

	fields := []struct {
		label string
		dst   *string
	}{
		{"Name", &edit.Name},
		{"Bio", &edit.Bio},
		{"Picture reference", &edit.ProfilePicture},
	}
	for _, f := range fields {
		v, err := a.ask(fmt.Sprintf("%s [%s]", f.label, *f.dst))
		if err != nil {
			return err
		}
		if v != "" {
			*f.dst = v
		}
	}

	rctx, cancel = a.rpc(ctx)
	defer cancel()
	if err := a.saveProfile(rctx, edit); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Profile updated successfully!")
	return nil
}

// picture uploads a local image to a presigned URL and then points the
// profile at the uploaded object.
func (a *App) picture(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	body, err := readFile(args[0])
	if err != nil {
		return err
	}
	contentType := http.DetectContentType(body)
	if !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("%s is not an image (%s)", args[0], contentType)
	}

	rctx, cancel := a.rpc(ctx)
	defer cancel()

	up, err := a.qb.RequestPictureUpload(rctx)
	if err != nil {
		return err
	}
	if err := a.uploader.Put(rctx, up.URL, contentType, body); err != nil {
		return err
	}

	edit, err := a.currentEdit(rctx)
	if err != nil {
		return err
	}
	edit.ProfilePicture = up.Key
	if err := a.saveProfile(rctx, edit); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Profile picture updated.")
	return nil
}

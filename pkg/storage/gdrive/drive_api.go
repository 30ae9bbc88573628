package gdrive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/adforgehq/adforge-backend/pkg/config"
)

const folderMimeType = "application/vnd.google-apps.folder"

// driveAPI is the slice of the Drive v3 surface the adapter needs. Kept
// narrow so tests can stand in a fake.
type driveAPI interface {
	ListFolders(ctx context.Context, name, parentID string) ([]*drive.File, error)
	CreateFolder(ctx context.Context, name, parentID string) (*drive.File, error)
	ListFilesByName(ctx context.Context, name, parentID string) ([]*drive.File, error)
	UploadFile(ctx context.Context, name, parentID, contentType string, body io.Reader) (*drive.File, error)
	AllowPublicRead(ctx context.Context, fileID string) error
	GetFile(ctx context.Context, fileID string) (*drive.File, error)
	DeleteFile(ctx context.Context, fileID string) error
	About(ctx context.Context) error
}

type driveService struct {
	svc *drive.Service
}

func newDriveService(ctx context.Context, cfg config.GDriveConfig) (*driveService, error) {
	var opts []option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.ClientEmail != "" && cfg.PrivateKey != "":
		conf := &jwt.Config{
			Email:      cfg.ClientEmail,
			PrivateKey: []byte(cfg.PrivateKey),
			Scopes:     []string{drive.DriveScope},
			TokenURL:   google.JWTTokenURL,
		}
		opts = append(opts, option.WithHTTPClient(conf.Client(ctx)))
	default:
		return nil, fmt.Errorf("gdrive: no credentials configured")
	}

	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gdrive: build service: %w", err)
	}
	return &driveService{svc: svc}, nil
}

func (d *driveService) ListFolders(ctx context.Context, name, parentID string) ([]*drive.File, error) {
	q := fmt.Sprintf("name = '%s' and '%s' in parents and mimeType = '%s' and trashed = false",
		escapeQueryValue(name), escapeQueryValue(parentID), folderMimeType)
	res, err := d.svc.Files.List().
		Q(q).
		Fields("files(id, name)").
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return res.Files, nil
}

func (d *driveService) CreateFolder(ctx context.Context, name, parentID string) (*drive.File, error) {
	return d.svc.Files.Create(&drive.File{
		Name:     name,
		MimeType: folderMimeType,
		Parents:  []string{parentID},
	}).Fields("id").Context(ctx).Do()
}

func (d *driveService) ListFilesByName(ctx context.Context, name, parentID string) ([]*drive.File, error) {
	q := fmt.Sprintf("name = '%s' and '%s' in parents and mimeType != '%s' and trashed = false",
		escapeQueryValue(name), escapeQueryValue(parentID), folderMimeType)
	res, err := d.svc.Files.List().
		Q(q).
		Fields("files(id, name)").
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return res.Files, nil
}

func (d *driveService) UploadFile(ctx context.Context, name, parentID, contentType string, body io.Reader) (*drive.File, error) {
	return d.svc.Files.Create(&drive.File{
		Name:    name,
		Parents: []string{parentID},
	}).Media(body, googleapi.ContentType(contentType)).
		Fields("id, size").
		Context(ctx).
		Do()
}

func (d *driveService) AllowPublicRead(ctx context.Context, fileID string) error {
	_, err := d.svc.Permissions.Create(fileID, &drive.Permission{
		Role: "reader",
		Type: "anyone",
	}).Context(ctx).Do()
	return err
}

func (d *driveService) GetFile(ctx context.Context, fileID string) (*drive.File, error) {
	return d.svc.Files.Get(fileID).Fields("id, trashed").Context(ctx).Do()
}

func (d *driveService) DeleteFile(ctx context.Context, fileID string) error {
	return d.svc.Files.Delete(fileID).Context(ctx).Do()
}

func (d *driveService) About(ctx context.Context) error {
	_, err := d.svc.About.Get().Fields("user").Context(ctx).Do()
	return err
}

// escapeQueryValue makes a value safe inside a single-quoted Drive query
// literal.
func escapeQueryValue(v string) string {
	out := make([]byte, 0, len(v))
	for i := 0; i < len(v); i++ {
		if v[i] == '\'' || v[i] == '\\' {
			out = append(out, '\\')
		}
		out = append(out, v[i])
	}
	return string(out)
}

// statusCode pulls the HTTP status out of a googleapi error, or 0.
func statusCode(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

// isRetryable reports whether the status suggests a transient failure.
func isRetryable(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

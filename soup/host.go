package soup

import "context"

// Host performs the side effects of file, folder and shell statements.
// Paths are passed as rendered; resolving them is up to the host.
type Host interface {
	CopyFile(ctx context.Context, src, dst string) error
	RenderFile(ctx context.Context, sb *Sandbox, src, dst string) error
	FillAndCopyFile(ctx context.Context, sb *Sandbox, src, dst string) error
	CopyFolder(ctx context.Context, src, dst string) error
	RenderFolder(ctx context.Context, sb *Sandbox, src, dst string) error
	RunShell(ctx context.Context, cmd string) (string, error)
	Announce(ctx context.Context, msg string) error
}

// NopHost ignores every side effect.
type NopHost struct{}

var _ Host = NopHost{}

func (NopHost) CopyFile(context.Context, string, string) error                  { return nil }
func (NopHost) RenderFile(context.Context, *Sandbox, string, string) error      { return nil }
func (NopHost) FillAndCopyFile(context.Context, *Sandbox, string, string) error { return nil }
func (NopHost) CopyFolder(context.Context, string, string) error                { return nil }
func (NopHost) RenderFolder(context.Context, *Sandbox, string, string) error    { return nil }
func (NopHost) RunShell(context.Context, string) (string, error)                { return "", nil }
func (NopHost) Announce(context.Context, string) error                          { return nil }

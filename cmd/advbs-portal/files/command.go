// Package files holds the process file commands.
package files

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/advbs/portal/internal/backend"
	"github.com/advbs/portal/internal/cli"
	"github.com/advbs/portal/internal/cmdutils"
	"github.com/advbs/portal/pkg/apiclient"
	"github.com/advbs/portal/pkg/session"
)

func Cmd(buildInfo string, flags *cmdutils.Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Manage process files",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List process files",
		Args:  cobra.NoArgs,
		RunE: cmdutils.GuardedCommand(buildInfo, flags, session.RoleAdmin, func(ctx context.Context, env *cmdutils.Env, _ []string) error {
			return List(ctx, env)
		}),
	}

	var req backend.UploadRequest
	upload := &cobra.Command{
		Use:   "upload <path>",
		Short: "Attach a file to a client, and optionally to one of their cases",
		Args:  cobra.ExactArgs(1),
		RunE: cmdutils.GuardedCommand(buildInfo, flags, session.RoleAdmin, func(ctx context.Context, env *cmdutils.Env, args []string) error {
			return Upload(ctx, env, args[0], req)
		}),
	}
	upload.Flags().Int64Var(&req.ClientID, "client", 0, "client id")
	upload.Flags().Int64Var(&req.CaseID, "case", 0, "case id")
	upload.Flags().StringVar(&req.Description, "description", "", "what the file is")

	del := &cobra.Command{
		Use:   "delete <file-id>",
		Short: "Delete a process file",
		Args:  cobra.ExactArgs(1),
		RunE: cmdutils.GuardedCommand(buildInfo, flags, session.RoleAdmin, func(ctx context.Context, env *cmdutils.Env, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return Delete(ctx, env, id)
		}),
	}

	var dir string
	download := &cobra.Command{
		Use:   "download <file-id>",
		Short: "Download a file",
		Args:  cobra.ExactArgs(1),
		RunE: cmdutils.GuardedCommand(buildInfo, flags, session.RoleNone, func(ctx context.Context, env *cmdutils.Env, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return Download(ctx, env, id, dir)
		}),
	}
	download.Flags().StringVarP(&dir, "dir", "d", ".", "directory to save into")

	cmd.AddCommand(list, upload, del, download)

	return cmd
}

// localName keeps the backend's file name inside the target directory.
// Names that reduce to a directory fall back to arquivo_<id>.
func localName(name string, id int64) string {
	base := filepath.Base(name)
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return "arquivo_" + strconv.FormatInt(id, 10)
	}
	return base
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%q is not a valid id", s)
	}
	return id, nil
}

func List(ctx context.Context, env *cmdutils.Env) error {
	files, err := env.Portal.Backend.ProcessFiles(ctx)
	if err != nil {
		return err
	}

	env.Printer.Title(fmt.Sprintf("Process files (%d)", len(files)))
	return env.Printer.Print(files, cli.FilesTable(files))
}

func Upload(ctx context.Context, env *cmdutils.Env, path string, req backend.UploadRequest) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	req.FileName = filepath.Base(path)
	req.Content = f

	pf, err := env.Portal.Backend.UploadProcessFile(ctx, req)
	if err != nil {
		return err
	}

	env.Printer.Success("Uploaded %s as file %d", req.FileName, pf.ID)
	return nil
}

func Delete(ctx context.Context, env *cmdutils.Env, id int64) error {
	if err := env.Portal.Backend.DeleteProcessFile(ctx, id); err != nil {
		return err
	}

	env.Printer.Success("File %d deleted", id)
	return nil
}

// Download saves a file under dir. Admins fetch process files, clients
// their own documents.
func Download(ctx context.Context, env *cmdutils.Env, id int64, dir string) error {
	var (
		f   *apiclient.File
		err error
	)
	if env.Session.Role() == session.RoleAdmin {
		f, err = env.Portal.Backend.DownloadProcessFile(ctx, id)
	} else {
		f, err = env.Portal.Backend.DownloadDocument(ctx, id)
	}
	if err != nil {
		return err
	}

	path := filepath.Join(dir, localName(f.Name, id))
	if err := os.WriteFile(path, f.Data, 0o600); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}

	env.Printer.Success("Saved %s (%d bytes)", path, len(f.Data))
	return nil
}

package tool

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	contractx "github.com/hansobored/hanagent/agent/contract"
	workspacex "github.com/hansobored/hanagent/agent/workspace"
)

// FileSystem returns the filesystem tool group, all paths confined to ws.
func FileSystem(ws *workspacex.Workspace) []Tool {
	return []Tool{
		{
			Spec: contractx.ToolSpec{
				Name:        "create_directory",
				Description: "Creates a directory (including parents) inside the workspace.",
				Params: []contractx.ParamSpec{
					{Name: "path", Type: contractx.ParamString, Description: "Directory path relative to the workspace.", Required: true},
				},
			},
			Fn: func(ctx context.Context, args map[string]any) contractx.ToolResult {
				path, err := stringArg(args, "path")
				if err != nil {
					return failure("%v", err)
				}
				full, err := ws.Resolve(path)
				if err != nil {
					return failure("%v", err)
				}
				if err := os.MkdirAll(full, 0o755); err != nil {
					return failure("failed to create directory '%s': %v", path, err)
				}
				return success(fmt.Sprintf("directory '%s' created", path))
			},
		},
		{
			Spec: contractx.ToolSpec{
				Name:        "write_file",
				Description: "Writes content to a file, creating parent directories as needed. Overwrites existing content.",
				Params: []contractx.ParamSpec{
					{Name: "filename", Type: contractx.ParamString, Description: "File path relative to the workspace.", Required: true},
					{Name: "content", Type: contractx.ParamString, Description: "Full file content to write.", Required: true},
				},
			},
			Fn: func(ctx context.Context, args map[string]any) contractx.ToolResult {
				filename, err := stringArg(args, "filename")
				if err != nil {
					return failure("%v", err)
				}
				content, err := stringArg(args, "content")
				if err != nil {
					return failure("%v", err)
				}
				full, err := ws.Resolve(filename)
				if err != nil {
					return failure("%v", err)
				}
				if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
					return failure("failed to create parent directory for '%s': %v", filename, err)
				}
				if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
					return failure("failed to write file '%s': %v", filename, err)
				}
				return success(fmt.Sprintf("file '%s' written", filename))
			},
		},
		{
			Spec: contractx.ToolSpec{
				Name:        "read_file",
				Description: "Reads the full content of a file in the workspace.",
				Params: []contractx.ParamSpec{
					{Name: "filename", Type: contractx.ParamString, Description: "File path relative to the workspace.", Required: true},
				},
			},
			Fn: func(ctx context.Context, args map[string]any) contractx.ToolResult {
				filename, err := stringArg(args, "filename")
				if err != nil {
					return failure("%v", err)
				}
				full, err := ws.Resolve(filename)
				if err != nil {
					return failure("%v", err)
				}
				info, err := os.Stat(full)
				if err != nil || info.IsDir() {
					return failure("file '%s' not found or not a file", filename)
				}
				raw, err := os.ReadFile(full)
				if err != nil {
					return failure("failed to read file '%s': %v", filename, err)
				}
				return success(string(raw))
			},
		},
		{
			Spec: contractx.ToolSpec{
				Name:        "append_to_file",
				Description: "Appends content to a file, creating it when absent.",
				Params: []contractx.ParamSpec{
					{Name: "filename", Type: contractx.ParamString, Description: "File path relative to the workspace.", Required: true},
					{Name: "content", Type: contractx.ParamString, Description: "Content to append.", Required: true},
				},
			},
			Fn: func(ctx context.Context, args map[string]any) contractx.ToolResult {
				filename, err := stringArg(args, "filename")
				if err != nil {
					return failure("%v", err)
				}
				content, err := stringArg(args, "content")
				if err != nil {
					return failure("%v", err)
				}
				full, err := ws.Resolve(filename)
				if err != nil {
					return failure("%v", err)
				}
				if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
					return failure("failed to create parent directory for '%s': %v", filename, err)
				}
				f, err := os.OpenFile(full, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
				if err != nil {
					return failure("failed to open file '%s': %v", filename, err)
				}
				defer f.Close()
				if _, err := f.WriteString(content); err != nil {
					return failure("failed to append to file '%s': %v", filename, err)
				}
				return success(fmt.Sprintf("content appended to file '%s'", filename))
			},
		},
		{
			Spec: contractx.ToolSpec{
				Name:        "list_directory",
				Description: "Lists the visible entries of a workspace directory.",
				Params: []contractx.ParamSpec{
					{Name: "path", Type: contractx.ParamString, Description: "Directory path relative to the workspace. Defaults to the workspace root."},
				},
			},
			Fn: func(ctx context.Context, args map[string]any) contractx.ToolResult {
				path := optionalStringArg(args, "path", ".")
				full, err := ws.Resolve(path)
				if err != nil {
					return failure("%v", err)
				}
				entries, err := os.ReadDir(full)
				if err != nil {
					return failure("'%s' is not a directory or was not found", path)
				}
				var visible []string
				for _, entry := range entries {
					if strings.HasPrefix(entry.Name(), ".") {
						continue
					}
					visible = append(visible, entry.Name())
				}
				if len(visible) == 0 {
					return success(fmt.Sprintf("directory '%s' is empty or contains only hidden entries", path))
				}
				return success(strings.Join(visible, "\n"))
			},
		},
		{
			Spec: contractx.ToolSpec{
				Name:        "delete_file",
				Description: "Deletes a single file from the workspace.",
				Params: []contractx.ParamSpec{
					{Name: "filename", Type: contractx.ParamString, Description: "File path relative to the workspace.", Required: true},
				},
			},
			Fn: func(ctx context.Context, args map[string]any) contractx.ToolResult {
				filename, err := stringArg(args, "filename")
				if err != nil {
					return failure("%v", err)
				}
				full, err := ws.Resolve(filename)
				if err != nil {
					return failure("%v", err)
				}
				info, err := os.Stat(full)
				if err != nil || info.IsDir() {
					return failure("file '%s' not found or not a file", filename)
				}
				if err := os.Remove(full); err != nil {
					return failure("failed to delete file '%s': %v", filename, err)
				}
				return success(fmt.Sprintf("file '%s' deleted", filename))
			},
		},
		{
			Spec: contractx.ToolSpec{
				Name:        "delete_directory",
				Description: "Deletes a directory and everything under it.",
				Params: []contractx.ParamSpec{
					{Name: "path", Type: contractx.ParamString, Description: "Directory path relative to the workspace.", Required: true},
				},
			},
			Fn: func(ctx context.Context, args map[string]any) contractx.ToolResult {
				path, err := stringArg(args, "path")
				if err != nil {
					return failure("%v", err)
				}
				full, err := ws.Resolve(path)
				if err != nil {
					return failure("%v", err)
				}
				if full == ws.Root() {
					return failure("refusing to delete the workspace root")
				}
				info, err := os.Stat(full)
				if err != nil || !info.IsDir() {
					return failure("directory '%s' not found", path)
				}
				if err := os.RemoveAll(full); err != nil {
					return failure("failed to delete directory '%s': %v", path, err)
				}
				return success(fmt.Sprintf("directory '%s' deleted", path))
			},
		},
		{
			Spec: contractx.ToolSpec{
				Name:        "copy_file",
				Description: "Copies a file to a new location inside the workspace.",
				Params: []contractx.ParamSpec{
					{Name: "source_path", Type: contractx.ParamString, Description: "Source file path.", Required: true},
					{Name: "destination_path", Type: contractx.ParamString, Description: "Destination file path.", Required: true},
				},
			},
			Fn: func(ctx context.Context, args map[string]any) contractx.ToolResult {
				src, err := stringArg(args, "source_path")
				if err != nil {
					return failure("%v", err)
				}
				dst, err := stringArg(args, "destination_path")
				if err != nil {
					return failure("%v", err)
				}
				return copyFile(ws, src, dst)
			},
		},
		{
			Spec: contractx.ToolSpec{
				Name:        "move_item",
				Description: "Moves a file or directory to a new location inside the workspace.",
				Params: []contractx.ParamSpec{
					{Name: "source_path", Type: contractx.ParamString, Description: "Source path.", Required: true},
					{Name: "destination_path", Type: contractx.ParamString, Description: "Destination path.", Required: true},
				},
			},
			Fn: func(ctx context.Context, args map[string]any) contractx.ToolResult {
				return renamePath(ws, args, "source_path", "destination_path", "moved")
			},
		},
		{
			Spec: contractx.ToolSpec{
				Name:        "rename_item",
				Description: "Renames a file or directory inside the workspace.",
				Params: []contractx.ParamSpec{
					{Name: "old_path", Type: contractx.ParamString, Description: "Current path.", Required: true},
					{Name: "new_path", Type: contractx.ParamString, Description: "New path.", Required: true},
				},
			},
			Fn: func(ctx context.Context, args map[string]any) contractx.ToolResult {
				return renamePath(ws, args, "old_path", "new_path", "renamed")
			},
		},
		{
			Spec: contractx.ToolSpec{
				Name:        "check_path_exists",
				Description: "Reports whether a path exists in the workspace.",
				Params: []contractx.ParamSpec{
					{Name: "path", Type: contractx.ParamString, Description: "Path relative to the workspace.", Required: true},
				},
			},
			Fn: func(ctx context.Context, args map[string]any) contractx.ToolResult {
				path, err := stringArg(args, "path")
				if err != nil {
					return failure("%v", err)
				}
				full, err := ws.Resolve(path)
				if err != nil {
					return failure("%v", err)
				}
				_, statErr := os.Stat(full)
				return success(map[string]any{"path": path, "exists": statErr == nil})
			},
		},
		{
			Spec: contractx.ToolSpec{
				Name:        "get_item_type",
				Description: "Reports whether a path is a file or a directory.",
				Params: []contractx.ParamSpec{
					{Name: "path", Type: contractx.ParamString, Description: "Path relative to the workspace.", Required: true},
				},
			},
			Fn: func(ctx context.Context, args map[string]any) contractx.ToolResult {
				path, err := stringArg(args, "path")
				if err != nil {
					return failure("%v", err)
				}
				full, err := ws.Resolve(path)
				if err != nil {
					return failure("%v", err)
				}
				info, err := os.Stat(full)
				if err != nil {
					return failure("path '%s' not found", path)
				}
				kind := "file"
				if info.IsDir() {
					kind = "directory"
				}
				return success(map[string]any{"path": path, "type": kind})
			},
		},
		{
			Spec: contractx.ToolSpec{
				Name:        "get_file_size",
				Description: "Returns the size of a file in bytes.",
				Params: []contractx.ParamSpec{
					{Name: "filename", Type: contractx.ParamString, Description: "File path relative to the workspace.", Required: true},
				},
			},
			Fn: func(ctx context.Context, args map[string]any) contractx.ToolResult {
				filename, err := stringArg(args, "filename")
				if err != nil {
					return failure("%v", err)
				}
				full, err := ws.Resolve(filename)
				if err != nil {
					return failure("%v", err)
				}
				info, err := os.Stat(full)
				if err != nil || info.IsDir() {
					return failure("file '%s' not found or not a file", filename)
				}
				return success(map[string]any{"filename": filename, "size_bytes": info.Size()})
			},
		},
		{
			Spec: contractx.ToolSpec{
				Name:        "search_file_content",
				Description: "Searches a file for lines containing a query string.",
				Params: []contractx.ParamSpec{
					{Name: "filename", Type: contractx.ParamString, Description: "File path relative to the workspace.", Required: true},
					{Name: "query", Type: contractx.ParamString, Description: "Substring to search for.", Required: true},
					{Name: "case_sensitive", Type: contractx.ParamBoolean, Description: "Match case exactly (default false)."},
				},
			},
			Fn: func(ctx context.Context, args map[string]any) contractx.ToolResult {
				filename, err := stringArg(args, "filename")
				if err != nil {
					return failure("%v", err)
				}
				query, err := stringArg(args, "query")
				if err != nil {
					return failure("%v", err)
				}
				caseSensitive := optionalBoolArg(args, "case_sensitive", false)
				full, err := ws.Resolve(filename)
				if err != nil {
					return failure("%v", err)
				}
				raw, err := os.ReadFile(full)
				if err != nil {
					return failure("failed to read file '%s': %v", filename, err)
				}
				needle := query
				if !caseSensitive {
					needle = strings.ToLower(query)
				}
				var matches []string
				for i, line := range strings.Split(string(raw), "\n") {
					haystack := line
					if !caseSensitive {
						haystack = strings.ToLower(line)
					}
					if strings.Contains(haystack, needle) {
						matches = append(matches, fmt.Sprintf("%d: %s", i+1, line))
					}
				}
				if len(matches) == 0 {
					return success(fmt.Sprintf("no lines in '%s' match %q", filename, query))
				}
				return success(strings.Join(matches, "\n"))
			},
		},
		{
			Spec: contractx.ToolSpec{
				Name:        "create_zip_archive",
				Description: "Creates a zip archive from workspace files and directories.",
				Params: []contractx.ParamSpec{
					{Name: "source_paths", Type: contractx.ParamArray, Description: "Paths to include in the archive.", Required: true},
					{Name: "output_zip_path", Type: contractx.ParamString, Description: "Path of the archive to create.", Required: true},
				},
			},
			Fn: func(ctx context.Context, args map[string]any) contractx.ToolResult {
				sources, err := stringSliceArg(args, "source_paths")
				if err != nil {
					return failure("%v", err)
				}
				if len(sources) == 0 {
					return failure("source_paths is required")
				}
				output, err := stringArg(args, "output_zip_path")
				if err != nil {
					return failure("%v", err)
				}
				return createZipArchive(ws, sources, output)
			},
		},
		{
			Spec: contractx.ToolSpec{
				Name:        "set_permissions",
				Description: "Changes the permissions of a workspace file or directory. Mode is an octal string such as '755'.",
				Params: []contractx.ParamSpec{
					{Name: "path", Type: contractx.ParamString, Description: "Path relative to the workspace.", Required: true},
					{Name: "mode", Type: contractx.ParamString, Description: "Octal permission string, e.g. '755' or '644'.", Required: true},
				},
			},
			Fn: func(ctx context.Context, args map[string]any) contractx.ToolResult {
				path, err := stringArg(args, "path")
				if err != nil {
					return failure("%v", err)
				}
				mode, err := stringArg(args, "mode")
				if err != nil {
					return failure("%v", err)
				}
				full, err := ws.Resolve(path)
				if err != nil {
					return failure("%v", err)
				}
				parsed, err := strconv.ParseUint(mode, 8, 32)
				if err != nil || len(mode) > 4 {
					return failure("mode must be an octal digit string such as '755' or '644'")
				}
				if err := os.Chmod(full, os.FileMode(parsed)); err != nil {
					return failure("failed to set permissions for '%s': %v", path, err)
				}
				return success(fmt.Sprintf("permissions for '%s' set to %s", path, mode))
			},
		},
	}
}

func copyFile(ws *workspacex.Workspace, src, dst string) contractx.ToolResult {
	fullSrc, err := ws.Resolve(src)
	if err != nil {
		return failure("%v", err)
	}
	fullDst, err := ws.Resolve(dst)
	if err != nil {
		return failure("%v", err)
	}
	info, err := os.Stat(fullSrc)
	if err != nil || info.IsDir() {
		return failure("source file '%s' not found", src)
	}
	if err := os.MkdirAll(filepath.Dir(fullDst), 0o755); err != nil {
		return failure("failed to create parent directory for '%s': %v", dst, err)
	}
	in, err := os.Open(fullSrc)
	if err != nil {
		return failure("failed to open source file '%s': %v", src, err)
	}
	defer in.Close()
	out, err := os.OpenFile(fullDst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return failure("failed to create destination file '%s': %v", dst, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return failure("failed to copy '%s' to '%s': %v", src, dst, err)
	}
	return success(fmt.Sprintf("file '%s' copied to '%s'", src, dst))
}

func renamePath(ws *workspacex.Workspace, args map[string]any, fromKey, toKey, verb string) contractx.ToolResult {
	from, err := stringArg(args, fromKey)
	if err != nil {
		return failure("%v", err)
	}
	to, err := stringArg(args, toKey)
	if err != nil {
		return failure("%v", err)
	}
	fullFrom, err := ws.Resolve(from)
	if err != nil {
		return failure("%v", err)
	}
	fullTo, err := ws.Resolve(to)
	if err != nil {
		return failure("%v", err)
	}
	if _, err := os.Stat(fullFrom); err != nil {
		return failure("path '%s' not found", from)
	}
	if err := os.MkdirAll(filepath.Dir(fullTo), 0o755); err != nil {
		return failure("failed to create parent directory for '%s': %v", to, err)
	}
	if err := os.Rename(fullFrom, fullTo); err != nil {
		return failure("failed to rename '%s' to '%s': %v", from, to, err)
	}
	return success(fmt.Sprintf("'%s' %s to '%s'", from, verb, to))
}

func createZipArchive(ws *workspacex.Workspace, sources []string, output string) contractx.ToolResult {
	fullOutput, err := ws.Resolve(output)
	if err != nil {
		return failure("%v", err)
	}
	if err := os.MkdirAll(filepath.Dir(fullOutput), 0o755); err != nil {
		return failure("failed to create parent directory for '%s': %v", output, err)
	}
	f, err := os.Create(fullOutput)
	if err != nil {
		return failure("failed to create archive '%s': %v", output, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	defer zw.Close()

	for _, source := range sources {
		fullSource, err := ws.Resolve(source)
		if err != nil {
			return failure("%v", err)
		}
		info, err := os.Stat(fullSource)
		if err != nil {
			return failure("source path '%s' not found", source)
		}
		if info.IsDir() {
			err = filepath.Walk(fullSource, func(path string, fi os.FileInfo, walkErr error) error {
				if walkErr != nil {
					return walkErr
				}
				rel, relErr := filepath.Rel(filepath.Dir(fullSource), path)
				if relErr != nil {
					return relErr
				}
				name := filepath.ToSlash(rel)
				if fi.IsDir() {
					_, dirErr := zw.Create(name + "/")
					return dirErr
				}
				return addZipEntry(zw, path, name)
			})
		} else {
			err = addZipEntry(zw, fullSource, filepath.Base(fullSource))
		}
		if err != nil {
			return failure("failed to archive '%s': %v", source, err)
		}
	}

	if err := zw.Close(); err != nil {
		return failure("failed to finalize archive '%s': %v", output, err)
	}
	return success(fmt.Sprintf("archive '%s' created with %d source(s)", output, len(sources)))
}

func addZipEntry(zw *zip.Writer, path, name string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	return err
}

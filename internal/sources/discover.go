package sources

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Discover returns the directories directly below each existing candidate
// root, in root order and then by name. Missing roots are ignored.
func Discover(roots []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, root := range roots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		entries, err := os.ReadDir(root)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", root, err)
		}
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			if entry.IsDir() {
				names = append(names, entry.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			full := filepath.Join(root, name)
			if _, dup := seen[full]; dup {
				continue
			}
			seen[full] = struct{}{}
			out = append(out, full)
		}
	}
	return out, nil
}

// Pick prints the numbered candidates to w and reads a space-separated
// selection such as "1 3 5" from r. An empty line selects nothing.
// Out-of-range numbers are ignored; any non-number rejects the whole input.
func Pick(candidates []string, r io.Reader, w io.Writer) ([]string, error) {
	if len(candidates) == 0 {
		fmt.Fprintln(w, "No candidate media sources found.")
		return nil, nil
	}
	fmt.Fprintln(w, "Found the following media source directories:")
	for i, path := range candidates {
		fmt.Fprintf(w, "  [%d] %s\n", i+1, path)
	}
	fmt.Fprint(w, "Select one or more sources (e.g. 1 3 5, Enter to skip): ")

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read selection: %w", err)
	}
	return ParseSelection(candidates, line)
}

// ParseSelection resolves 1-based indexes in line against candidates.
func ParseSelection(candidates []string, line string) ([]string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, nil
	}
	var selected []string
	seen := make(map[int]struct{})
	for _, field := range fields {
		idx, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid selection %q", field)
		}
		if idx < 1 || idx > len(candidates) {
			continue
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		selected = append(selected, candidates[idx-1])
	}
	return selected, nil
}

// MountPoints returns where device is mounted according to the mounts table
// at mountsPath (normally /proc/self/mounts).
func MountPoints(mountsPath, device string) ([]string, error) {
	f, err := os.Open(mountsPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || fields[0] != device {
			continue
		}
		out = append(out, unescapeMount(fields[1]))
	}
	return out, scanner.Err()
}

// unescapeMount decodes the octal escapes (\040 for space) used in mounts.
func unescapeMount(value string) string {
	if !strings.Contains(value, `\`) {
		return value
	}
	var b strings.Builder
	for i := 0; i < len(value); i++ {
		if value[i] == '\\' && i+3 < len(value) {
			if n, err := strconv.ParseUint(value[i+1:i+4], 8, 8); err == nil {
				b.WriteByte(byte(n))
				i += 3
				continue
			}
		}
		b.WriteByte(value[i])
	}
	return b.String()
}

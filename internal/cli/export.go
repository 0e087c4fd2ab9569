package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"
	"filippo.io/age/armor"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	apperrors "github.com/auri-app/auri/pkg/errors"
	"github.com/auri-app/auri/pkg/journal"
)

// Export formats.
const (
	exportJSON = "json"
	exportYAML = "yaml"
)

// ageHeader starts every binary age file.
const ageHeader = "age-encryption.org/v1"

func (c *CLI) entryExportCommand() *cobra.Command {
	var (
		format     string
		output     string
		recipients []string
		armored    bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export journal entries as JSON or YAML",
		Long: `Export all of your journal entries, newest first.

With --recipient (an age X25519 public key, repeatable) the export is
encrypted so only the matching identities can read it. --armor writes the
encrypted export as text instead of binary.`,
		Example: `  auri entry export --format yaml -o journal.yaml
  auri entry export --recipient age1... --armor > journal.age`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openStore(ctx)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()

			entries, err := store.List(ctx, c.Config.User, journal.ListOptions{})
			if err != nil {
				return err
			}
			data, err := encodeEntries(entries, format)
			if err != nil {
				return err
			}
			if len(recipients) > 0 {
				if data, err = seal(data, recipients, armored); err != nil {
					return err
				}
			}

			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			printSuccess("Exported %d entries", len(entries))
			printFile(output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", exportJSON, "output format: json, yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringSliceVarP(&recipients, "recipient", "r", nil, "encrypt to this age public key")
	cmd.Flags().BoolVarP(&armored, "armor", "a", false, "write encrypted output as ASCII armor")
	return cmd
}

func (c *CLI) entryImportCommand() *cobra.Command {
	var identityFile string

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import journal entries from an export",
		Long: `Import journal entries written by 'entry export'.

Entries are added to your journal under their original IDs; entries that
already exist are skipped. Encrypted exports need --identity, a file holding
the matching age secret key. Use "-" to read stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args[0])
			if err != nil {
				return err
			}
			if isSealed(data) {
				if identityFile == "" {
					return apperrors.New(apperrors.ErrCodeInvalidInput, "%s is encrypted; pass --identity", args[0])
				}
				if data, err = unseal(data, identityFile); err != nil {
					return err
				}
			}
			entries, err := decodeEntries(data, args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := c.openStore(ctx)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()

			var added, skipped int
			for _, e := range entries {
				e.UserID = c.Config.User
				_, err := store.Create(ctx, e)
				switch {
				case errors.Is(err, journal.ErrExists):
					skipped++
				case err != nil:
					return fmt.Errorf("import entry %s: %w", e.ID, err)
				default:
					added++
				}
			}
			printSuccess("Imported %d entries", added)
			if skipped > 0 {
				printDetail("%d already in the journal", skipped)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&identityFile, "identity", "i", "", "age identity file for encrypted exports")
	return cmd
}

func encodeEntries(entries []journal.Entry, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case exportJSON:
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case exportYAML, "yml":
		return yaml.Marshal(entries)
	default:
		return nil, apperrors.New(apperrors.ErrCodeInvalidFormat, "unknown export format %q (want json or yaml)", format)
	}
}

// decodeEntries reads JSON or YAML. YAML is chosen by file extension or,
// for stdin, by the first non-space byte.
func decodeEntries(data []byte, name string) ([]journal.Entry, error) {
	var entries []journal.Entry
	var err error
	switch ext := strings.ToLower(filepath.Ext(name)); {
	case ext == ".yaml" || ext == ".yml":
		err = yaml.Unmarshal(data, &entries)
	case ext == ".json" || bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")):
		err = json.Unmarshal(data, &entries)
	default:
		err = yaml.Unmarshal(data, &entries)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "parse %s", name)
	}
	return entries, nil
}

func seal(data []byte, keys []string, armored bool) ([]byte, error) {
	recipients := make([]age.Recipient, 0, len(keys))
	for _, k := range keys {
		r, err := age.ParseX25519Recipient(strings.TrimSpace(k))
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "recipient %q", k)
		}
		recipients = append(recipients, r)
	}

	var buf bytes.Buffer
	var dst io.Writer = &buf
	var aw io.WriteCloser
	if armored {
		aw = armor.NewWriter(&buf)
		dst = aw
	}
	w, err := age.Encrypt(dst, recipients...)
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}
	if aw != nil {
		if err := aw.Close(); err != nil {
			return nil, fmt.Errorf("armor: %w", err)
		}
	}
	return buf.Bytes(), nil
}

func isSealed(data []byte) bool {
	return bytes.HasPrefix(data, []byte(ageHeader)) || bytes.HasPrefix(bytes.TrimSpace(data), []byte(armor.Header))
}

func unseal(data []byte, identityFile string) ([]byte, error) {
	f, err := os.Open(identityFile)
	if err != nil {
		return nil, fmt.Errorf("open identity: %w", err)
	}
	defer f.Close()
	identities, err := age.ParseIdentities(f)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "parse identity %s", identityFile)
	}

	var src io.Reader = bytes.NewReader(data)
	if !bytes.HasPrefix(data, []byte(ageHeader)) {
		src = armor.NewReader(bytes.NewReader(bytes.TrimSpace(data)))
	}
	r, err := age.Decrypt(src, identities...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeUnauthorized, err, "decrypt export")
	}
	return io.ReadAll(r)
}

func readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/ts4z/clicktunes/config"
	"github.com/ts4z/clicktunes/form"
	"github.com/ts4z/clicktunes/manifest"
	"github.com/ts4z/clicktunes/probe"
	"github.com/ts4z/clicktunes/soundmodel"
	"github.com/ts4z/clicktunes/state"
)

const (
	// these sizes are recommended by the gorilla/securecookie package
	// https://pkg.go.dev/github.com/gorilla/securecookie#New
	hashKeySize  = 64
	blockKeySize = 32
)

var (
	soundName string
	soundFile string
	soundType string
	exportOut string
	assumeYes bool
)

func openStore(ctx context.Context) (state.SoundStorage, error) {
	return state.Open(ctx, state.OpenOptions{
		Backend:   config.Store(),
		BoltPath:  config.BoltPath(),
		Connector: config.SQLConnector(),
		DBURL:     config.DBURL(),
		Origin:    "admin-" + uuid.NewString(),
	})
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad sound id %q", s)
	}
	return id, nil
}

// The mime package only knows audio types if the system tables do.
var audioExtensions = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
}

// mimeTypeFor guesses from the file name when --type isn't given.
func mimeTypeFor(path, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := audioExtensions[ext]; ok {
		return t, nil
	}
	t := mime.TypeByExtension(ext)
	if t == "" {
		return "", fmt.Errorf("can't guess the type of %s; use --type", path)
	}
	return t, nil
}

func listSounds(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	storage, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer storage.Close()

	sounds, err := storage.ListSounds(ctx)
	if err != nil {
		return fmt.Errorf("listing sounds: %w", err)
	}

	out := cmd.OutOrStdout()
	if !isTerminal(os.Stdout) {
		for _, sr := range sounds {
			slug := sr.Slug()
			fmt.Fprintf(out, "%d\t%s\t%s\n", slug.ID, slug.Name, slug.MIMEType)
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "id\tname\ttype\n")
	for _, sr := range sounds {
		slug := sr.Slug()
		fmt.Fprintf(w, "%d\t%s\t%s\n", slug.ID, slug.Name, slug.MIMEType)
	}
	return w.Flush()
}

func addSound(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if soundFile == "" {
		return fmt.Errorf("--file is required")
	}
	data, err := os.ReadFile(soundFile)
	if err != nil {
		return err
	}
	mimeType, err := mimeTypeFor(soundFile, soundType)
	if err != nil {
		return err
	}

	storage, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer storage.Close()

	p := form.NewProcessor(storage, config.UploadLimit(), config.ProbeUploads())
	res, err := p.AddSound(ctx, &form.Upload{
		Name:     soundName,
		Filename: filepath.Base(soundFile),
		MIMEType: mimeType,
		Data:     data,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s as sound %d.\n", res.Message, res.ID)
	if res.Info != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "  %v\n", res.Info)
	}
	return nil
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N] ", prompt)
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func removeSound(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	storage, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer storage.Close()

	if !assumeYes && isTerminal(os.Stdin) {
		sr, err := storage.FetchSound(ctx, id)
		if err != nil {
			return err
		}
		if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Remove sound %d %q?", id, sr.Name)) {
			fmt.Fprintln(cmd.OutOrStdout(), "Not removed.")
			return nil
		}
	}

	if err := storage.RemoveSound(ctx, id); err != nil {
		return fmt.Errorf("removing sound %d: %w", id, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed sound %d.\n", id)
	return nil
}

func exportSound(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if exportOut == "" {
		return fmt.Errorf("--out is required")
	}

	storage, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer storage.Close()

	sr, err := storage.FetchSound(ctx, id)
	if err != nil {
		return err
	}
	mimeType, data, err := soundmodel.DecodeDataURL(sr.SoundPath)
	if err != nil {
		return fmt.Errorf("sound %d has no stored payload (%s): %w", id, sr.SoundPath, err)
	}
	if err := os.WriteFile(exportOut, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes of %s to %s.\n", len(data), mimeType, exportOut)
	return nil
}

func probeSound(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	mimeType, err := mimeTypeFor(args[0], soundType)
	if err != nil {
		return err
	}
	info, err := probe.Probe(mimeType, data)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", args[0], info)
	return nil
}

func checkManifest(cmd *cobra.Command, args []string) error {
	source := config.Manifest()
	if len(args) > 0 {
		source = args[0]
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	entries, err := manifest.Load(ctx, &http.Client{}, source)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "#\tname\tsoundPath\n")
	for i, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\n", i, e.Name, e.SoundPath)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d buttons OK.\n", len(entries))
	return nil
}

func generateKeys(cmd *cobra.Command, args []string) error {
	hashKey := securecookie.GenerateRandomKey(hashKeySize)
	blockKey := securecookie.GenerateRandomKey(blockKeySize)
	if hashKey == nil || blockKey == nil {
		return fmt.Errorf("can't generate random keys")
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "cookie_hash_key: %s\n", base64.StdEncoding.EncodeToString(hashKey))
	fmt.Fprintf(out, "cookie_block_key: %s\n", base64.StdEncoding.EncodeToString(blockKey))
	return nil
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Short:         "ClickTunes administration tool",
		Use:           "clicktunesadmin",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	soundCmd := &cobra.Command{
		Short: "Manage stored sounds",
		Use:   "sound",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored sounds",
		Args:  cobra.NoArgs,
		RunE:  listSounds,
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a sound from a file",
		Args:  cobra.NoArgs,
		RunE:  addSound,
	}
	addCmd.Flags().StringVar(&soundName, "name", "", "Button label")
	addCmd.Flags().StringVar(&soundFile, "file", "", "Audio file to store")
	addCmd.Flags().StringVar(&soundType, "type", "", "MIME type (default: guessed from the file name)")

	removeCmd := &cobra.Command{
		Use:   "remove [id]",
		Short: "Remove a stored sound",
		Args:  cobra.ExactArgs(1),
		RunE:  removeSound,
	}
	removeCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Don't ask for confirmation")

	exportCmd := &cobra.Command{
		Use:   "export [id]",
		Short: "Write a stored sound's audio to a file",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSound,
	}
	exportCmd.Flags().StringVar(&exportOut, "out", "", "File to write")

	probeCmd := &cobra.Command{
		Use:   "probe [file]",
		Short: "Check that a file decodes as playable audio",
		Args:  cobra.ExactArgs(1),
		RunE:  probeSound,
	}
	probeCmd.Flags().StringVar(&soundType, "type", "", "MIME type (default: guessed from the file name)")

	soundCmd.AddCommand(listCmd, addCmd, removeCmd, exportCmd, probeCmd)

	manifestCmd := &cobra.Command{
		Short: "Inspect the default buttons",
		Use:   "manifest",
	}
	manifestCmd.AddCommand(&cobra.Command{
		Use:   "check [path-or-url]",
		Short: "Load and validate a buttons.json (default: the configured one)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  checkManifest,
	})

	keyCmd := &cobra.Command{
		Short: "Manage session cookie keys",
		Use:   "key",
	}
	keyCmd.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Print fresh cookie keys for ~/.clicktunes",
		Args:  cobra.NoArgs,
		RunE:  generateKeys,
	})

	rootCmd.AddCommand(soundCmd, manifestCmd, keyCmd)
	return rootCmd
}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)
	config.Init()

	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

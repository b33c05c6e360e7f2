// Command landing-cli exercises the landing page API from a terminal: it
// submits a local photo for enhancement and writes the result next to it,
// or sends a contact message.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/ai-photo-landing/internal/client"
	"github.com/fpang/ai-photo-landing/internal/imagedata"
	"github.com/fpang/ai-photo-landing/internal/logging"
)

// CLI flags
var (
	serverFlag   string
	logLevelFlag string
	outputFlag   string
	timeoutFlag  time.Duration

	nameFlag    string
	emailFlag   string
	messageFlag string
)

var rootCmd = &cobra.Command{
	Use:   "landing-cli",
	Short: "Command-line client for the AI photo landing API",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(logLevelFlag, logging.FormatConsole)
	},
	SilenceUsage: true,
}

var enhanceCmd = &cobra.Command{
	Use:   "enhance [image]",
	Short: "Enhance a photo with AI",
	Long: `Enhance uploads a photo (JPEG, PNG, GIF, WebP, BMP or TIFF, at most 4 MB)
and saves the enhanced version. Without an argument a file picker opens.

Examples:
  landing-cli enhance ./portrait.jpg
  landing-cli enhance ./portrait.jpg -o ./portrait-final.png
  landing-cli enhance https://example.com/photo.jpg
  landing-cli enhance --server https://api.example.com`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEnhance,
}

var contactCmd = &cobra.Command{
	Use:     "contact",
	Short:   "Send a contact message",
	Example: `  landing-cli contact --name "Ada Lovelace" --email ada@example.com --message "Hello"`,
	Args:    cobra.NoArgs,
	RunE:    runContact,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverFlag, "server", "s", "http://localhost:8080", "Base URL of the landing API")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", client.DefaultTimeout, "Timeout for one API call")

	enhanceCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output path (default: <name>-enhanced.<ext> next to the input)")

	contactCmd.Flags().StringVar(&nameFlag, "name", "", "Your name")
	contactCmd.Flags().StringVar(&emailFlag, "email", "", "Your email address")
	contactCmd.Flags().StringVar(&messageFlag, "message", "", "Message text")
	for _, name := range []string{"name", "email", "message"} {
		_ = contactCmd.MarkFlagRequired(name)
	}

	rootCmd.AddCommand(enhanceCmd, contactCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runEnhance(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag)
	defer cancel()

	input := ""
	if len(args) == 1 {
		input = args[0]
	} else {
		picked, err := pickImage()
		if err != nil {
			return err
		}
		if picked == "" {
			log.Info().Msg("No file selected")
			return nil
		}
		input = picked
	}

	c := client.New(serverFlag)
	start := time.Now()
	var output string
	var err error
	if isRemote(input) {
		output, err = c.Enhance(ctx, input)
	} else {
		output, err = c.EnhanceFile(ctx, input)
	}
	if err != nil {
		return err
	}

	mimeType, data, err := imagedata.ParseDataURL(output)
	if err != nil {
		return fmt.Errorf("decode enhanced image: %w", err)
	}
	if mimeType == "" {
		mimeType = imagedata.DetectMIME(data)
	}

	dest := outputFlag
	if dest == "" {
		dest = outputPath(input, mimeType)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	log.Info().
		Str("output", dest).
		Int("bytes", len(data)).
		Dur("duration", time.Since(start)).
		Msg("Enhanced image saved")
	fmt.Println(dest)
	return nil
}

func runContact(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag)
	defer cancel()

	id, err := client.New(serverFlag).SubmitContact(ctx, client.ContactRequest{
		Name:    nameFlag,
		Email:   emailFlag,
		Message: messageFlag,
	})
	if err != nil {
		return err
	}
	log.Info().Str("id", id).Msg("Message sent successfully")
	return nil
}

// pickImage opens a native file dialog. It returns "" when the user cancels.
func pickImage() (string, error) {
	path, err := zenity.SelectFile(
		zenity.Title("Select a photo to enhance"),
		zenity.FileFilters{
			{Name: "Images", Patterns: imagePatterns()},
		},
	)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return "", nil
		}
		return "", fmt.Errorf("file picker failed: %w", err)
	}
	return path, nil
}

func imagePatterns() []string {
	patterns := make([]string, 0, len(imagedata.SupportedImageExtensions))
	for ext := range imagedata.SupportedImageExtensions {
		patterns = append(patterns, "*"+ext)
	}
	sort.Strings(patterns)
	return patterns
}

func isRemote(input string) bool {
	return strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://")
}

// outputPath derives "<dir>/<base>-enhanced<ext>" from the input, choosing
// the extension from the enhanced image's media type. Remote inputs are
// written to the working directory.
func outputPath(input, mimeType string) string {
	ext := extensionFor(mimeType)
	if isRemote(input) {
		input = input[strings.LastIndexByte(input, '/')+1:]
		if i := strings.IndexAny(input, "?#"); i >= 0 {
			input = input[:i]
		}
		if input == "" {
			input = "image"
		}
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + "-enhanced" + ext
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/tiff":
		return ".tiff"
	}
	for ext, t := range imagedata.SupportedImageExtensions {
		if t == mimeType {
			return ext
		}
	}
	return ".jpg"
}

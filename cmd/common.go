package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sw33tLie/followscope/internal/utils"
	"github.com/sw33tLie/followscope/pkg/export"
	"github.com/sw33tLie/followscope/pkg/social"
	devprovider "github.com/sw33tLie/followscope/pkg/social/dev"
	"github.com/sw33tLie/followscope/pkg/social/instagram"
	"github.com/sw33tLie/followscope/pkg/storage"
	"golang.org/x/term"
)

// newProvider builds and authenticates the provider selected by --dev and the config file.
// The caller must Logout when done. in is the command's shared prompt reader.
func newProvider(cmd *cobra.Command, in *bufio.Reader) (social.Provider, error) {
	proxy, _ := cmd.Flags().GetString("proxy")
	useDev, _ := cmd.Flags().GetBool("dev")

	if useDev {
		p := devprovider.NewProvider()
		return p, p.Authenticate(cmd.Context(), social.AuthConfig{})
	}

	p, err := instagram.NewProvider(instagram.Options{
		DelayMin: seconds(viper.GetFloat64("instagram.delay_min")),
		DelayMax: seconds(viper.GetFloat64("instagram.delay_max")),
	})
	if err != nil {
		return nil, err
	}

	authCfg := social.AuthConfig{
		Username:  viper.GetString("instagram.username"),
		Password:  viper.GetString("instagram.password"),
		SessionID: viper.GetString("instagram.sessionid"),
		OTPSecret: viper.GetString("instagram.otpsecret"),
		Proxy:     proxy,
	}
	if authCfg.SessionID == "" && authCfg.Username == "" {
		return nil, fmt.Errorf("no credentials found. Set instagram.username/password or instagram.sessionid in ~/.followscope.yaml")
	}
	if authCfg.SessionID == "" && authCfg.Password == "" {
		authCfg.Password = readPassword(cmd, in, fmt.Sprintf("Password for %s: ", authCfg.Username))
	}

	if err := p.Authenticate(cmd.Context(), authCfg); err != nil {
		return nil, fmt.Errorf("instagram auth failed: %w", err)
	}
	utils.Log.Infof("Authenticated as %s", p.Account())
	return p, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func logout(cmd *cobra.Command, p social.Provider) {
	if err := p.Logout(cmd.Context()); err != nil {
		utils.Log.Warnf("Logout failed: %v", err)
	}
}

// openStore opens the snapshot store configured by --storage/--storage-path or the config file.
func openStore() (storage.Store, error) {
	kind := viper.GetString("storage.kind")
	path, err := utils.StoragePath(kind, viper.GetString("storage.path"))
	if err != nil {
		return nil, err
	}
	utils.Log.Debugf("Using %s snapshot storage at %s", kind, path)
	return storage.Open(kind, path)
}

// promptInput wraps stdin once per command. Every prompt of that command must
// read from the returned reader, or buffered answers get lost between prompts.
func promptInput(cmd *cobra.Command) *bufio.Reader {
	return bufio.NewReader(cmd.InOrStdin())
}

func readLine(in *bufio.Reader) string {
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}

// readPassword reads a secret without echo when stdin is a terminal, otherwise as a plain line.
func readPassword(cmd *cobra.Command, in *bufio.Reader, prompt string) string {
	out := cmd.OutOrStdout()
	fmt.Fprint(out, prompt)
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		// newline after hidden input
		fmt.Fprintln(out)
		if err == nil {
			return strings.TrimSpace(string(secret))
		}
		utils.Log.Debugf("Hidden input unavailable: %v", err)
	}
	return readLine(in)
}

// confirm asks a yes/no question. Anything but y/yes is a no.
func confirm(in *bufio.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	switch strings.ToLower(readLine(in)) {
	case "y", "yes":
		return true
	}
	return false
}

func addExportFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("export", false, "Export results to a timestamped file in the current directory")
	cmd.Flags().String("format", export.FormatJSON, "Export format. Available: json, yaml")
}

// maybeExport writes v when --export is set.
func maybeExport(cmd *cobra.Command, name string, v any) error {
	if ok, _ := cmd.Flags().GetBool("export"); !ok {
		return nil
	}
	format, _ := cmd.Flags().GetString("format")
	path, err := export.Exporter{Format: format}.Write(name, v)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Results exported to %s\n", path)
	return nil
}

package main

import (
	"fmt"
	"os"

	"github.com/portscope/portscope/internal/common/logger"
	"github.com/portscope/portscope/internal/common/output"
	"github.com/portscope/portscope/internal/common/version"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	quiet      bool
	noColor    bool
	configFile string
	cssFile    string
)

var rootCmd = &cobra.Command{
	Use:   "portscope",
	Short: "Gentoo ecosystem inspector",
	Long: `Inspect and manage the Gentoo package ecosystem: search the eix index,
browse package metadata, dependency and file trees, manage overlays and keep
up with repository news and security advisories.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Configure logging based on flags
		if verbose {
			logger.SetVerbose(true)
		}
		if quiet {
			logger.SetQuiet(true)
		}
		if noColor {
			output.NoColor()
		}
	},
}

var overlayCmd = &cobra.Command{
	Use:   "overlay",
	Short: "Manage ebuild repositories",
	Long:  `Browse the public overlay catalog and enable, sync, disable or remove overlays.`,
}

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Repository news items",
	Long:  `List repository news items and manage their read-state.`,
}

var glsaCmd = &cobra.Command{
	Use:   "glsa",
	Short: "Security advisories affecting this system",
	Long:  `List, inspect and resolve Gentoo Linux Security Advisories that apply to installed packages.`,
}

func init() {
	rootCmd.Version = version.Short()
	// Predefined so the auto-added version flag gets the -V shorthand.
	rootCmd.Flags().BoolP("version", "V", false, "Print the version number")

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&cssFile, "css", "", "Path to a stylesheet overriding the configured theme")

	rootCmd.AddCommand(overlayCmd)
	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(glsaCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

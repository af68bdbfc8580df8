package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lxpfetch/pkg/crawler"
)

// subjectsCmd represents the subjects command
var subjectsCmd = &cobra.Command{
	Use:   "subjects",
	Short: "List enrolled subjects",
	Long: `List the subjects the authenticated user is enrolled in.

Use the printed ids with 'lxpfetch fetch --subject <id>' to download a
single subject.`,
	Args: cobra.NoArgs,
	Run:  runSubjects,
}

func init() {
	rootCmd.AddCommand(subjectsCmd)

	subjectsCmd.Flags().StringVarP(&platformDomain, "domain", "d", "", "platform franchise domain (ithub, vvsu, rostov, ekat, caspian)")
	subjectsCmd.Flags().StringVar(&platformBaseURL, "base-url", "", "full platform base URL (overrides --domain)")
	subjectsCmd.Flags().StringVar(&credentialsFile, "credentials", "", "credentials file (.json or dotenv)")
}

func runSubjects(cmd *cobra.Command, args []string) {
	cfg := loadConfig(platformFlags())
	log := setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := signIn(ctx, cfg, log)

	discoverer := crawler.NewDiscoverer(client, cfg, log)
	entries, err := discoverer.ListSubjects(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to list subjects:", err)
		exitFor(err)
	}

	if len(entries) == 0 {
		fmt.Println("No subjects found.")
		return
	}

	fmt.Printf("%-10s %s\n", "ID", "TITLE")
	for _, entry := range entries {
		fmt.Printf("%-10d %s\n", entry.ID, entry.Title)
	}
}

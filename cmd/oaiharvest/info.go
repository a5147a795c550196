package main

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/miku/oaiharvest"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info [ENDPOINT ...]",
	Short: "Summarize repositories, one JSON object per line.",
	Long: `Run Identify, ListSets and ListMetadataFormats against each endpoint. Endpoints
are taken from the arguments, or read from stdin, one per line.`,
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().IntP("workers", "w", 8, "endpoints in parallel")
	rootCmd.AddCommand(infoCmd)
}

func worker(ctx context.Context, log *zerolog.Logger, queue <-chan string, out chan<- *oaiharvest.RepositoryInfo, wg *sync.WaitGroup) {
	defer wg.Done()
	for endpoint := range queue {
		client, err := newClient(endpoint, log)
		if err != nil {
			log.Warn().Err(err).Str("endpoint", endpoint).Msg("skipping")
			continue
		}
		info, err := oaiharvest.About(ctx, client)
		if err != nil {
			log.Warn().Err(err).Str("endpoint", endpoint).Msg("failed")
			continue
		}
		log.Debug().Str("endpoint", endpoint).Msg("done")
		out <- info
	}
}

// endpoints sends the endpoints from args or r to queue and closes it.
func endpoints(ctx context.Context, args []string, r io.Reader, queue chan<- string) error {
	defer close(queue)
	send := func(s string) bool {
		select {
		case queue <- s:
			return true
		case <-ctx.Done():
			return false
		}
	}
	if len(args) > 0 {
		for _, endpoint := range args {
			if !send(endpoint) {
				return ctx.Err()
			}
		}
		return nil
	}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		endpoint := strings.TrimSpace(scanner.Text())
		if endpoint == "" {
			continue
		}
		if !send(endpoint) {
			return ctx.Err()
		}
	}
	return scanner.Err()
}

func runInfo(cmd *cobra.Command, args []string) error {
	workers, _ := cmd.Flags().GetInt("workers")
	if workers < 1 {
		workers = 1
	}
	log := newLogger()
	ctx := cmd.Context()

	queue := make(chan string)
	out := make(chan *oaiharvest.RepositoryInfo)
	done := make(chan error)

	go func() {
		var err error
		for info := range out {
			if err == nil {
				err = writeJSON(cmd.OutOrStdout(), info)
			}
		}
		done <- err
	}()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go worker(ctx, log, queue, out, &wg)
	}

	readErr := endpoints(ctx, args, cmd.InOrStdin(), queue)
	wg.Wait()
	close(out)
	if err := <-done; err != nil {
		return err
	}
	return readErr
}

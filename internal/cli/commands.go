package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	cache "github.com/krisalay/asset-cache"
	"github.com/krisalay/asset-cache/pipeline"
	"github.com/krisalay/asset-cache/types"
)

var errMiss = errors.New("not cached")

func (c *command) getCmd() *cobra.Command {
	var (
		dataURI bool
		warmUp  bool
	)
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print the cached base64 data for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app) error {
				key := args[0]
				if warmUp {
					a.warmOnMiss()
				}

				out, ok := lookup(ctx, a.cache, key, dataURI)
				if !ok && warmUp {
					if err := a.pipeline.Wait(ctx); err != nil {
						return err
					}
					out, ok = lookup(ctx, a.cache, key, dataURI)
				}
				if !ok {
					c.exitCode = ExitMiss
					return fmt.Errorf("%s: %w", key, errMiss)
				}
				fmt.Fprintln(c.stdout, out)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dataURI, "data-uri", false, "print a data: URI instead of bare base64")
	cmd.Flags().BoolVar(&warmUp, "warm", false, "on a miss, populate the key in the background and retry once")
	return cmd
}

func lookup(ctx context.Context, c *cache.HybridCache, key string, dataURI bool) (string, bool) {
	if dataURI {
		return c.DataURI(ctx, key)
	}
	return c.Get(ctx, key)
}

func (c *command) fetchCmd() *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Return a key from the cache, downloading and storing it on a miss",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app) error {
				data, err := a.pipeline.GetOrFetch(ctx, args[0])
				if err != nil {
					return err
				}
				if quiet {
					fmt.Fprintf(c.stdout, "%s: %d bytes of base64\n", args[0], len(data))
					return nil
				}
				fmt.Fprintln(c.stdout, data)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print only the encoded size")
	return cmd
}

func (c *command) populateCmd() *cobra.Command {
	var (
		file        string
		contentType string
	)
	cmd := &cobra.Command{
		Use:   "populate [url...]",
		Short: "Download every listed asset that is not cached yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := append([]string(nil), args...)
			if file != "" {
				fromFile, err := readKeys(file)
				if err != nil {
					c.exitCode = ExitUsageError
					return err
				}
				keys = append(keys, fromFile...)
			}
			if len(keys) == 0 {
				c.exitCode = ExitUsageError
				return fmt.Errorf("no assets given")
			}

			return c.withApp(cmd, func(ctx context.Context, a *app) error {
				assets := make([]types.Asset, 0, len(keys))
				for _, k := range keys {
					assets = append(assets, types.Asset{Key: k, ContentType: contentType})
				}

				batch := a.pipeline.Populate(assets)
				if err := batch.Wait(ctx); err != nil {
					return err
				}
				return writeJSON(c, batch.Stats())
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read asset keys from a file, one per line")
	cmd.Flags().StringVar(&contentType, "content-type", "", "content type to record when the origin does not declare one")
	return cmd
}

// readKeys returns the non-blank, non-comment lines of path.
func readKeys(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening asset list: %w", err)
	}
	defer f.Close()

	var keys []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		keys = append(keys, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading asset list: %w", err)
	}
	return keys, nil
}

func (c *command) clearCmd() *cobra.Command {
	var memoryOnly, durableOnly bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cached assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			if memoryOnly && durableOnly {
				c.exitCode = ExitUsageError
				return fmt.Errorf("--memory and --durable are mutually exclusive")
			}
			return c.withApp(cmd, func(ctx context.Context, a *app) error {
				switch {
				case memoryOnly:
					a.cache.ClearMemory()
					fmt.Fprintln(c.stdout, "Memory tier cleared.")
				case durableOnly:
					a.cache.ClearDurable(ctx)
					fmt.Fprintln(c.stdout, "Durable tier cleared.")
				default:
					a.cache.ClearAll(ctx)
					fmt.Fprintln(c.stdout, "Cache cleared.")
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&memoryOnly, "memory", false, "clear only the memory tier")
	cmd.Flags().BoolVar(&durableOnly, "durable", false, "clear only the durable tier")
	return cmd
}

type statsReport struct {
	Cache          cache.Stats    `json:"cache"`
	DurableEntries int64          `json:"durable_entries"`
	Pipeline       pipeline.Stats `json:"pipeline"`
}

func (c *command) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app) error {
				report := statsReport{
					Cache:    a.cache.Stats(),
					Pipeline: a.pipeline.Stats(),
				}
				if report.Cache.DurableAvailable {
					n, err := a.backend.Count(ctx)
					if err != nil {
						return fmt.Errorf("reading cache stats: %w", err)
					}
					report.DurableEntries = n
				}
				return writeJSON(c, report)
			})
		},
	}
}

func writeJSON(c *command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, string(data))
	return nil
}

package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"photopass/internal/client"
	"photopass/internal/config"
	"photopass/internal/domain"
	"photopass/internal/locator"
	"photopass/internal/probe"
	"photopass/internal/service"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
)

const timeoutMessage = "Conversion timed out. Try again later."

// errReported marks a failure already printed to the user.
var errReported = errors.New("reported")

type cli struct {
	out    io.Writer
	errOut io.Writer

	serverURL     string
	convertedBase string
	outDir        string
	interval      time.Duration
	attempts      int
	probeTimeout  time.Duration
	httpTimeout   time.Duration
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{out: out, errOut: errOut}

	defaults := defaultSettings()

	rootCmd := &cobra.Command{
		Use:   "photopass",
		Short: "Upload a portrait and download its converted passport photo",
		Long: `photopass uploads a single image to a photopass server and waits for the
external converter to publish the converted object, then downloads it.

Examples:
  photopass upload me.jpg               # Upload only, prints the key
  photopass convert 1718000000000-me.jpg # Wait for and download the converted photo
  photopass run me.jpg                  # Upload, then wait and download
  photopass status 1718000000000-me.jpg  # Probe once`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&c.serverURL, "server", "s", defaults.serverURL, "photopass server base URL")
	flags.StringVar(&c.convertedBase, "converted-base", defaults.convertedBase, "base URL of the converted objects")
	flags.StringVarP(&c.outDir, "out", "o", ".", "directory for downloaded photos")
	flags.DurationVar(&c.interval, "interval", defaults.interval, "delay between probes")
	flags.IntVar(&c.attempts, "attempts", defaults.attempts, "maximum number of probes")
	flags.DurationVar(&c.probeTimeout, "probe-timeout", defaults.probeTimeout, "timeout of a single probe")
	flags.DurationVar(&c.httpTimeout, "http-timeout", 2*time.Minute, "timeout of upload and download requests")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "upload [file]",
			Short: "Upload an image",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := c.upload(cmd, firstArg(args))
				return err
			},
		},
		&cobra.Command{
			Use:   "convert <key>",
			Short: "Wait for the converted photo and download it",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.convert(cmd, args[0])
			},
		},
		&cobra.Command{
			Use:   "run [file]",
			Short: "Upload an image, then wait for and download the converted photo",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				result, err := c.upload(cmd, firstArg(args))
				if err != nil || result == nil {
					return err
				}
				return c.convert(cmd, result.Key)
			},
		},
		&cobra.Command{
			Use:   "status <key>",
			Short: "Probe once for the converted photo",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.status(cmd, args[0])
			},
		},
	)

	return rootCmd
}

type settings struct {
	serverURL     string
	convertedBase string
	interval      time.Duration
	attempts      int
	probeTimeout  time.Duration
}

// defaultSettings seeds flag defaults from the PHOTOPASS_ environment so the
// CLI derives converted URLs the same way the server does.
func defaultSettings() settings {
	s := settings{
		serverURL:    "http://localhost:8080",
		interval:     3 * time.Second,
		attempts:     20,
		probeTimeout: 5 * time.Second,
	}
	if v := os.Getenv("PHOTOPASS_SERVER_URL"); v != "" {
		s.serverURL = v
	}
	cfg, err := config.Load()
	if err != nil {
		return s
	}
	s.convertedBase = cfg.ConvertedURLBase()
	s.interval = cfg.Poll.Interval
	s.attempts = cfg.Poll.MaxAttempts
	s.probeTimeout = cfg.Poll.ProbeTimeout
	return s
}

// upload returns a nil result without error when no file was selected.
func (c *cli) upload(cmd *cobra.Command, path string) (*domain.UploadResult, error) {
	result, err := c.client().Upload(cmd.Context(), path)
	if errors.Is(err, domain.ErrNoFileSelected) {
		return nil, nil
	}
	if err != nil {
		var upErr *client.UploadError
		if errors.As(err, &upErr) {
			fmt.Fprintln(c.errOut, red(upErr.Message))
			if upErr.Details != "" {
				fmt.Fprintln(c.errOut, gray(upErr.Details))
			}
			return nil, errReported
		}
		fmt.Fprintln(c.errOut, red(err.Error()))
		return nil, errReported
	}

	fmt.Fprintf(c.out, "%s %s\n", green("Uploaded:"), result.OriginalName)
	fmt.Fprintf(c.out, "%s %s\n", gray("Key:"), result.Key)
	return result, nil
}

func (c *cli) convert(cmd *cobra.Command, key string) error {
	poller, err := c.poller()
	if err != nil {
		return err
	}

	fmt.Fprintln(c.out, gray(fmt.Sprintf("Waiting for %s (every %s, up to %d attempts)...", key, c.interval, c.attempts)))
	result, err := poller.Poll(cmd.Context(), key)
	switch {
	case errors.Is(err, domain.ErrConversionTimeout):
		fmt.Fprintln(c.errOut, yellow(timeoutMessage))
		return errReported
	case err != nil:
		fmt.Fprintln(c.errOut, red(err.Error()))
		return errReported
	}

	dest, err := c.client().Download(cmd.Context(), result.URL, c.outDir, key)
	if err != nil {
		fmt.Fprintln(c.errOut, red(err.Error()))
		return errReported
	}
	fmt.Fprintln(c.out, green("Downloaded passport photo!"))
	fmt.Fprintf(c.out, "%s %s\n", gray("Saved to:"), dest)
	return nil
}

func (c *cli) status(cmd *cobra.Command, key string) error {
	poller, err := c.poller()
	if err != nil {
		return err
	}
	st, err := poller.Check(cmd.Context(), key)
	if err != nil {
		fmt.Fprintln(c.errOut, red(err.Error()))
		return errReported
	}
	if st.Ready {
		fmt.Fprintf(c.out, "%s %s\n", green("Ready:"), st.URL)
		return nil
	}
	fmt.Fprintf(c.out, "%s %s\n", yellow("Not ready:"), st.URL)
	return nil
}

func (c *cli) client() *client.Client {
	return client.New(c.serverURL, &http.Client{Timeout: c.httpTimeout})
}

func (c *cli) poller() (*service.ConversionPoller, error) {
	if c.convertedBase == "" {
		fmt.Fprintln(c.errOut, red("converted base URL is not configured; pass --converted-base"))
		return nil, errReported
	}
	loc := locator.New(c.convertedBase)
	return service.NewConversionPoller(
		probe.NewHTTPProber(loc, &http.Client{}),
		loc,
		service.PollConfig{Interval: c.interval, MaxAttempts: c.attempts, ProbeTimeout: c.probeTimeout},
		nil,
	), nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

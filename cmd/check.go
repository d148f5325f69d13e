package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cottand/tyinfer/config"
	"github.com/cottand/tyinfer/internal/log"
	"github.com/cottand/tyinfer/problem"
	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-set/v3"
	"github.com/kr/pretty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var CheckCmd = &cobra.Command{
	Use:          "check problem.yaml...",
	Short:        "Check constraint problems",
	RunE:         runCheck,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

var (
	configPath *string
	logLevel   *string
	jobs       *int
	watch      *bool
	dump       *bool
)

func init() {
	configPath = CheckCmd.Flags().StringP("config", "c", "", "path to "+config.FileName+", looked up from the working directory if empty")
	logLevel = CheckCmd.Flags().StringP("log-level", "l", "", "log level, overriding the configuration")
	jobs = CheckCmd.Flags().IntP("jobs", "j", 0, "problems checked concurrently, overriding the configuration")
	watch = CheckCmd.Flags().BoolP("watch", "w", false, "check again whenever a problem file changes")
	dump = CheckCmd.Flags().Bool("dump", false, "print each problem as it was parsed")
}

var logger = log.DefaultLogger.With("section", "cli")

// ErrFailed means some step of some problem did not go as its problem expected
var ErrFailed = errors.New("some problems did not check as expected")

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	var (
		conf config.Config
		err  error
	)
	if *configPath != "" {
		conf, err = config.Load(*configPath)
	} else {
		var wd, found string
		if wd, err = os.Getwd(); err != nil {
			return conf, errors.Wrap(err, "could not get working directory")
		}
		found, conf, err = config.Find(wd)
		if found != "" {
			logger.Debug("using configuration", "path", found)
		}
	}
	if err != nil {
		return conf, err
	}

	if *logLevel != "" {
		conf.Log.Level = *logLevel
	}
	if cmd.Flags().Changed("jobs") {
		if *jobs < 1 {
			return conf, errors.Errorf("--jobs must be at least 1, got %d", *jobs)
		}
		conf.Check.Parallelism = *jobs
	}
	return conf, conf.Apply()
}

func runCheck(cmd *cobra.Command, args []string) error {
	conf, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	failed, err := checkFiles(cmd.Context(), out, args, conf, *dump)
	if err != nil {
		return err
	}
	if *watch {
		return watchFiles(cmd.Context(), out, args, conf)
	}
	if failed {
		return ErrFailed
	}
	return nil
}

// checkFiles runs every problem at paths and writes the reports to out in the
// order of paths, whichever finishes first
func checkFiles(ctx context.Context, out io.Writer, paths []string, conf config.Config, dump bool) (bool, error) {
	reports := make([]string, len(paths))
	failures := make([]bool, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(conf.Check.Parallelism)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			report, failed, err := checkFile(path, conf, dump)
			if err != nil {
				return err
			}
			reports[i], failures[i] = report, failed
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}

	anyFailed := false
	for i := range paths {
		if _, err := io.WriteString(out, reports[i]); err != nil {
			return false, errors.Wrap(err, "could not write report")
		}
		anyFailed = anyFailed || failures[i]
	}
	return anyFailed, nil
}

func checkFile(path string, conf config.Config, dump bool) (string, bool, error) {
	p, err := problem.Load(path)
	if err != nil {
		return "", false, err
	}
	sb := &strings.Builder{}
	if dump {
		_, _ = pretty.Fprintf(sb, "%# v\n", p)
	}
	report, err := problem.Run(p, problem.Options{ReportUnresolved: conf.Check.ReportUnresolved})
	if err != nil {
		return "", false, errors.Wrapf(err, "could not run %s", path)
	}
	logger.Info("checked", "path", path, "failed", report.Failed(), "diagnostics", report.Diagnostics)
	sb.WriteString(report.String())
	return sb.String(), report.Failed(), nil
}

// watchFiles checks a problem again each time it is written, until ctx is done.
// Directories are watched rather than files, as editors often replace a file
// instead of writing to it
func watchFiles(ctx context.Context, out io.Writer, paths []string, conf config.Config) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "could not start watching")
	}
	defer watcher.Close()

	byAbs := make(map[string]string, len(paths))
	dirs := set.New[string](len(paths))
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return errors.Wrapf(err, "could not get absolute path of %s", path)
		}
		byAbs[abs] = path
		dirs.Insert(filepath.Dir(abs))
	}
	for _, dir := range dirs.Slice() {
		if err := watcher.Add(dir); err != nil {
			return errors.Wrapf(err, "could not watch %s", dir)
		}
	}
	logger.Info("watching", "dirs", dirs.Size())

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			path, ok := byAbs[filepath.Clean(event.Name)]
			if !ok {
				continue
			}
			logger.Debug("problem changed", "path", path, "op", event.Op.String())
			if _, err := checkFiles(ctx, out, []string{path}, conf, false); err != nil {
				_, _ = fmt.Fprintln(out, err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)
		}
	}
}

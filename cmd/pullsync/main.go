package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
	"golang.org/x/crypto/ssh"
	"golang.org/x/term"

	"github.com/b1naryth1ef/pullsync"
	"github.com/b1naryth1ef/pullsync/transport"
)

var excludes = flag.StringArray("exclude", nil, "the file name to exclude; may be used several times")
var excludeGlobs = flag.StringArray("exclude-glob", nil, "a glob matched against file names and relative paths to exclude; may be used several times")
var checkSize = flag.Bool("check-size", false, "also re-fetch files whose size differs from the remote")
var move = flag.Bool("move", false, "remove remote files once the local copy is up to date")
var dryRun = flag.Bool("dry-run", false, "log what would be done without changing anything")
var transportName = flag.String("transport", "sftp", "how to reach the remote files: sftp or http")
var port = flag.Uint16("port", 9594, "the port the remote agent listens on for the http transport")
var splitThreshold = flag.String("split-threshold", "1GB", "files over this size will be split across multiple HTTP transfer requests")
var splitConcurrency = flag.Int("split-concurrency", 4, "number of concurrent HTTP transfer requests to run for each split file")
var askPassword = flag.Bool("password", false, "prompt for an ssh password")
var sshConfig = flag.String("ssh-config", "", "an alternate ssh config file")
var timeout = flag.Duration("timeout", 10*time.Second, "ssh connection timeout")
var serve = flag.String("serve", "", "serve this directory as an http agent instead of mirroring")
var listen = flag.String("listen", "localhost:9594", "the address the http agent listens on")
var verbose = flag.BoolP("verbose", "v", false, "log every file; up to date files are only logged at this level")
var quiet = flag.BoolP("quiet", "q", false, "only log warnings and errors")

func usage() {
	fmt.Fprintf(os.Stderr, "Update local files with remote ones over ssh, like rsync.\n\n")
	fmt.Fprintf(os.Stderr, "Usage:\n  %s [flags] [user@]host remote_path local_path\n", filepath.Base(os.Args[0]))
	fmt.Fprintf(os.Stderr, "  %s --serve path [--listen addr]\n\n", filepath.Base(os.Args[0]))
	fmt.Fprintf(os.Stderr, "If user is omitted, the current local username is used.\n\nFlags:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	switch {
	case *verbose:
		log.SetLevel(log.DebugLevel)
	case *quiet:
		log.SetLevel(log.WarnLevel)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := cli(ctx)
	if err != nil {
		log.WithError(err).Error("mirror failed")
		os.Exit(1)
	}
}

func cli(ctx context.Context) error {
	if *serve != "" {
		server, err := pullsync.NewServer(afero.NewOsFs(), pullsync.ServerOpts{
			Path:   *serve,
			Listen: *listen,
		})
		if err != nil {
			return err
		}
		return server.Run(ctx)
	}

	args := flag.Args()
	if len(args) != 3 {
		flag.Usage()
		os.Exit(2)
	}
	target, remotePath, localPath := args[0], args[1], args[2]

	localPath, err := expandHome(localPath)
	if err != nil {
		return err
	}

	opts := pullsync.SSHOpts{ConfigPath: *sshConfig, Timeout: *timeout}
	if *askPassword {
		opts.Password, err = readPassword()
		if err != nil {
			return err
		}
	}

	conn, err := pullsync.OpenSSH(target, opts)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", target, err)
	}
	defer conn.Close()

	tp, err := openTransport(conn)
	if err != nil {
		return err
	}
	defer tp.Close()

	client := pullsync.NewClient(tp, afero.NewOsFs(), pullsync.ClientOpts{
		RemotePath: remotePath,
		LocalPath:  localPath,
		DryRun:     *dryRun,
		Policy: pullsync.Policy{
			ExcludedNames:   *excludes,
			ExcludePatterns: *excludeGlobs,
			MoveAfterFetch:  *move,
			CheckSize:       *checkSize,
		},
	})
	return client.Run(ctx)
}

func openTransport(conn *ssh.Client) (transport.Transport, error) {
	switch *transportName {
	case "sftp":
		return transport.NewSFTPTransport(conn)
	case "http":
		threshold, err := humanize.ParseBytes(*splitThreshold)
		if err != nil {
			return nil, fmt.Errorf("failed to parse --split-threshold: %w", err)
		}

		// the agent listens on the remote loopback and is reached through
		// the ssh connection
		target := fmt.Sprintf("http://localhost:%d", *port)
		if *splitConcurrency > 1 {
			return transport.NewHTTPConcurrentClientTransport(target, conn.Dial, transport.ConcurrentTransferOpts{
				Threshold:   int64(threshold),
				Concurrency: int64(*splitConcurrency),
			}), nil
		}
		return transport.NewHTTPClientTransport(target, conn.Dial), nil
	default:
		return nil, fmt.Errorf("%w: %s", pullsync.ErrUnsupportedTransport, *transportName)
	}
}

func readPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !hasHomePrefix(path) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

func hasHomePrefix(path string) bool {
	return len(path) >= 2 && path[0] == '~' && (path[1] == '/' || path[1] == filepath.Separator)
}

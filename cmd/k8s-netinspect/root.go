package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
	"k8s.io/client-go/kubernetes"
	"k8s.io/component-base/logs"
	"k8s.io/klog/v2"

	"github.com/netinspect/k8s-netinspect/pkg/config"
	"github.com/netinspect/k8s-netinspect/pkg/errkind"
	"github.com/netinspect/k8s-netinspect/pkg/kube"
	"github.com/netinspect/k8s-netinspect/pkg/metrics"
	"github.com/netinspect/k8s-netinspect/pkg/report"
	"github.com/netinspect/k8s-netinspect/pkg/validation"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "0.1.0"

// rootOptions holds the global flags and the collaborators commands are built from.
type rootOptions struct {
	configPath  string
	kubeconfig  string
	kubeContext string
	metricsFile string
	noColor     bool

	out    io.Writer
	errOut io.Writer
	env    validation.Environment
	// newClient is replaced in tests.
	newClient func(kube.Options) (kubernetes.Interface, error)
}

func newRootOptions(out, errOut io.Writer) *rootOptions {
	return &rootOptions{
		out:       out,
		errOut:    errOut,
		env:       validation.OSEnvironment(),
		newClient: kube.NewClientset,
	}
}

func newRootCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "k8s-netinspect",
		Short: "A minimal Kubernetes network inspection tool",
		Long: `k8s-netinspect checks the RBAC permissions it needs, detects the cluster CNI,
counts nodes and pods, and tests HTTP reachability of individual pods.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return errkind.Newf(errkind.InvalidInput, "unknown command %q for %q", args[0], cmd.CommandPath())
			}
			return cmd.Help()
		},
	}
	cmd.SetOut(o.out)
	cmd.SetErr(o.errOut)
	cmd.SetVersionTemplate(`{{printf "k8s-netinspect version %s\n" .Version}}`)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errkind.Wrap(errkind.InvalidInput, err, err.Error())
	})

	o.addFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newDiagnoseCmd(o),
		newTestPodCmd(o),
		newCheckPermissionCmd(o),
		newRBACManifestCmd(o),
		newVersionCmd(o),
	)
	return cmd
}

// addFlags registers the global flags, including the klog flags.
func (o *rootOptions) addFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.configPath, "config", "", "Path of the configuration file (built-in defaults when empty)")
	fs.StringVar(&o.kubeconfig, "kubeconfig", "", "Path to the kubeconfig file (defaults to $KUBECONFIG or ~/.kube/config)")
	fs.StringVar(&o.kubeContext, "context", "", "Kubeconfig context to use")
	fs.StringVar(&o.metricsFile, "metrics-file", "", "Write Prometheus metrics of this run to the given file")
	fs.BoolVar(&o.noColor, "no-color", false, "Disable colored output")
	logs.AddFlags(fs)
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, args []string, o *rootOptions) int {
	cmd := newRootCmd(o)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)

	if o.metricsFile != "" {
		if mErr := metrics.WriteTextfile(o.metricsFile); mErr != nil {
			klog.ErrorS(mErr, "Failed to write metrics", "path", o.metricsFile)
		}
	}
	if err != nil {
		o.printer(o.errOut).Error(err)
		return exitCode(err)
	}
	return 0
}

// exitCode maps err to the process exit code of its kind.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	return errkind.ExitCode(errkind.KindOf(err))
}

func (o *rootOptions) printer(w io.Writer) *report.Printer {
	color := false
	if f, ok := w.(*os.File); ok && !o.noColor && os.Getenv("NO_COLOR") == "" {
		color = term.IsTerminal(int(f.Fd()))
	}
	return report.NewPrinter(w, color)
}

// loadConfig reads the configuration file, or the defaults when none was given.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.ParseFromFile(o.configPath)
	if err != nil {
		return nil, errkind.Wrap(errkind.ConfigurationError, err, fmt.Sprintf("Failed to load configuration: %v", err))
	}
	klog.V(2).InfoS("Loaded configuration", "path", o.configPath)
	return cfg, nil
}

// connect checks that a kubeconfig is available and builds the client. No request is sent.
func (o *rootOptions) connect() (kubernetes.Interface, error) {
	if o.kubeconfig != "" {
		if _, err := o.env.Stat(o.kubeconfig); err != nil {
			return nil, errkind.Wrap(errkind.ConfigurationError, err,
				fmt.Sprintf("Kubeconfig file not found: %s", o.kubeconfig))
		}
	} else {
		path, err := validation.ValidateEnvironment(o.env)
		if err != nil {
			return nil, err
		}
		klog.V(2).InfoS("Using kubeconfig", "path", path)
	}
	return o.newClient(kube.Options{KubeconfigPath: o.kubeconfig, Context: o.kubeContext})
}

// noArgs rejects positional arguments as invalid input.
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return errkind.Wrap(errkind.InvalidInput, err, err.Error())
	}
	return nil
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/netinspect/k8s-netinspect/pkg/diagnose"
	"github.com/netinspect/k8s-netinspect/pkg/validation"
)

func newTestPodCmd(o *rootOptions) *cobra.Command {
	var (
		pod       string
		namespace string
	)
	cmd := &cobra.Command{
		Use:   "test-pod",
		Short: "Test HTTP connectivity to a pod",
		Long: `Looks up the pod, checks that it is running with an IP address and sends HTTP GET
requests to it, retrying with a linear backoff.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validation.ValidatePodName(pod); err != nil {
				return err
			}
			if err := validation.ValidateNamespace(namespace); err != nil {
				return err
			}
			cfg, err := o.loadConfig()
			if err != nil {
				return err
			}
			client, err := o.connect()
			if err != nil {
				return err
			}

			p := o.printer(cmd.OutOrStdout())
			p.Headline("Testing connectivity to pod %s/%s...", namespace, pod)
			d := diagnose.New(client, cfg, diagnose.WithObserver(p))
			if err := d.Preflight(cmd.Context(), ""); err != nil {
				return err
			}
			report, err := d.TestPod(cmd.Context(), pod, namespace)
			if report != nil && report.Phase != "" {
				p.PodTest(report)
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&pod, "pod", "p", "", "Name of the pod to test")
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "default", "Namespace of the pod")
	return cmd
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/netinspect/k8s-netinspect/pkg/diagnose"
	"github.com/netinspect/k8s-netinspect/pkg/validation"
)

func newDiagnoseCmd(o *rootOptions) *cobra.Command {
	var (
		namespace string
		checkDNS  bool
	)
	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Diagnose cluster networking",
		Long: `Validates RBAC access, detects the CNI from node metadata and counts nodes and pods.
With --namespace the pod count is limited to that namespace, which must exist.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if namespace != "" {
				if err := validation.ValidateNamespace(namespace); err != nil {
					return err
				}
			}
			cfg, err := o.loadConfig()
			if err != nil {
				return err
			}
			if checkDNS {
				cfg.Diagnose.CheckDNS = true
			}
			client, err := o.connect()
			if err != nil {
				return err
			}

			p := o.printer(cmd.OutOrStdout())
			p.Headline("Running network diagnosis...")
			d := diagnose.New(client, cfg, diagnose.WithObserver(p))
			if err := d.Preflight(cmd.Context(), namespace); err != nil {
				return err
			}
			report, err := d.Diagnose(cmd.Context(), namespace)
			if err != nil {
				return err
			}
			p.Diagnosis(report)
			return nil
		},
	}
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "Limit the pod count to this namespace")
	cmd.Flags().BoolVar(&checkDNS, "check-dns", false,
		"Also query the cluster DNS service through its ClusterIP. The ClusterIP is usually unreachable from outside "+
			"the cluster, so the step normally reports degraded unless run from a pod or a node")
	return cmd
}

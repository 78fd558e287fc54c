package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netinspect/k8s-netinspect/pkg/rbac"
)

func newRBACManifestCmd(o *rootOptions) *cobra.Command {
	var serviceAccount, namespace string
	cmd := &cobra.Command{
		Use:     "rbac-manifest",
		Short:   "Print a script that grants the permissions k8s-netinspect needs",
		Example: `  k8s-netinspect rbac-manifest --service-account netinspect -n tools | bash`,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			script, err := rbac.GenerateSetupScript(serviceAccount, namespace)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), script)
			return err
		},
	}
	cmd.Flags().StringVar(&serviceAccount, "service-account", "k8s-netinspect", "Service account to create and bind")
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "default", "Namespace of the service account")
	return cmd
}

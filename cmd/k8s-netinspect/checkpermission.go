package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netinspect/k8s-netinspect/pkg/rbac"
	"github.com/netinspect/k8s-netinspect/pkg/types"
)

func newCheckPermissionCmd(o *rootOptions) *cobra.Command {
	var (
		resource  string
		verbs     []string
		namespace string
	)
	cmd := &cobra.Command{
		Use:   "check-permission",
		Short: "Check that specific verbs are allowed on a resource",
		Example: `  k8s-netinspect check-permission --resource pods --verb get,list -n kube-system
  k8s-netinspect check-permission --resource nodes --verb list`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := o.connect()
			if err != nil {
				return err
			}
			prober := rbac.NewProber(client, namespace)
			err = prober.ValidateSpecificPermission(cmd.Context(), resource, verbs, namespace)

			p := o.printer(cmd.OutOrStdout())
			for _, r := range prober.Results() {
				rec := types.StepRecord{Name: fmt.Sprintf("%s/%s", r.Resource, r.Verb), Outcome: types.OutcomeOK}
				if !r.Allowed {
					rec.Outcome = types.OutcomeFatal
				}
				p.StepCompleted(rec)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&resource, "resource", "", "Resource to check: nodes, pods, services, endpoints or namespaces")
	cmd.Flags().StringSliceVar(&verbs, "verb", []string{rbac.VerbList}, "Verbs to check, comma separated: get, list")
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "default", "Namespace for namespaced resources")
	return cmd
}

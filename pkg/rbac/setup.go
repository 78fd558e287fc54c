package rbac

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/samber/lo"
	rbacv1 "k8s.io/api/rbac/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"

	"github.com/netinspect/k8s-netinspect/pkg/validation"
)

const (
	clusterRoleName = "k8s-netinspect-cluster"
	roleName        = "k8s-netinspect-namespace"

	targetNamespacePlaceholder = "<TARGET_NAMESPACE>"
)

// Permission is one RBAC rule k8s-netinspect needs.
type Permission struct {
	Resource      string
	Verbs         []string
	ClusterScoped bool
}

// RequiredPermissions lists the permissions checked by ValidateAccess.
func RequiredPermissions() []Permission {
	return lo.Map(mandatoryProbes, func(p mandatoryProbe, _ int) Permission {
		return Permission{
			Resource:      p.resource,
			Verbs:         []string{VerbGet, VerbList},
			ClusterScoped: isClusterScoped(p.resource),
		}
	})
}

func rules(clusterScoped bool) []rbacv1.PolicyRule {
	perms := lo.Filter(RequiredPermissions(), func(p Permission, _ int) bool { return p.ClusterScoped == clusterScoped })
	return lo.Map(perms, func(p Permission, _ int) rbacv1.PolicyRule {
		return rbacv1.PolicyRule{
			APIGroups: []string{""},
			Resources: []string{p.Resource},
			Verbs:     p.Verbs,
		}
	})
}

// Manifests builds the RBAC objects granting serviceAccount in namespace the required permissions.
func Manifests(serviceAccount, namespace string) (clusterScoped, namespaced []any) {
	subjects := []rbacv1.Subject{{
		Kind:      rbacv1.ServiceAccountKind,
		Name:      serviceAccount,
		Namespace: namespace,
	}}
	clusterScoped = []any{
		&rbacv1.ClusterRole{
			TypeMeta:   metav1.TypeMeta{APIVersion: rbacv1.SchemeGroupVersion.String(), Kind: "ClusterRole"},
			ObjectMeta: metav1.ObjectMeta{Name: clusterRoleName},
			Rules:      rules(true),
		},
		&rbacv1.ClusterRoleBinding{
			TypeMeta:   metav1.TypeMeta{APIVersion: rbacv1.SchemeGroupVersion.String(), Kind: "ClusterRoleBinding"},
			ObjectMeta: metav1.ObjectMeta{Name: clusterRoleName},
			RoleRef:    rbacv1.RoleRef{APIGroup: rbacv1.GroupName, Kind: "ClusterRole", Name: clusterRoleName},
			Subjects:   subjects,
		},
	}
	namespaced = []any{
		&rbacv1.Role{
			TypeMeta:   metav1.TypeMeta{APIVersion: rbacv1.SchemeGroupVersion.String(), Kind: "Role"},
			ObjectMeta: metav1.ObjectMeta{Name: roleName, Namespace: namespace},
			Rules:      rules(false),
		},
		roleBinding(namespace, subjects),
	}
	return clusterScoped, namespaced
}

func roleBinding(namespace string, subjects []rbacv1.Subject) *rbacv1.RoleBinding {
	return &rbacv1.RoleBinding{
		TypeMeta:   metav1.TypeMeta{APIVersion: rbacv1.SchemeGroupVersion.String(), Kind: "RoleBinding"},
		ObjectMeta: metav1.ObjectMeta{Name: roleName, Namespace: namespace},
		RoleRef:    rbacv1.RoleRef{APIGroup: rbacv1.GroupName, Kind: "Role", Name: roleName},
		Subjects:   subjects,
	}
}

// GenerateSetupScript renders a bash script that creates serviceAccount in namespace and applies
// the RBAC objects it needs.
func GenerateSetupScript(serviceAccount, namespace string) (string, error) {
	if err := validation.ValidateServiceAccountName(serviceAccount); err != nil {
		return "", err
	}
	if err := validation.ValidateNamespace(namespace); err != nil {
		return "", err
	}

	clusterObjs, namespacedObjs := Manifests(serviceAccount, namespace)
	clusterYAML, err := marshalDocuments(clusterObjs)
	if err != nil {
		return "", err
	}
	namespacedYAML, err := marshalDocuments(namespacedObjs)
	if err != nil {
		return "", err
	}
	extraBinding, err := yaml.Marshal(roleBinding(targetNamespacePlaceholder, []rbacv1.Subject{{
		Kind:      rbacv1.ServiceAccountKind,
		Name:      serviceAccount,
		Namespace: namespace,
	}}))
	if err != nil {
		return "", fmt.Errorf("failed to marshal role binding: %w", err)
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "#!/bin/bash\n# RBAC Setup Script for k8s-netinspect\n# Service Account: %s\n# Namespace: %s\n\n",
		serviceAccount, namespace)
	b.WriteString("set -euo pipefail\n\n")
	b.WriteString("echo \"Setting up RBAC permissions for k8s-netinspect...\"\n\n")
	fmt.Fprintf(&b, "kubectl create serviceaccount %s -n %s --dry-run=client -o yaml | kubectl apply -f -\n\n",
		serviceAccount, namespace)
	b.WriteString("# Cluster-level permissions (nodes, namespaces)\n")
	writeHeredoc(&b, clusterYAML)
	b.WriteString("\n# Namespace-level permissions (pods, services, endpoints)\n")
	writeHeredoc(&b, namespacedYAML)
	b.WriteString("\necho \"RBAC permissions configured successfully!\"\n")
	fmt.Fprintf(&b, "echo \"You can now use k8s-netinspect with the service account: %s\"\n", serviceAccount)
	b.WriteString("echo \"\"\n")
	b.WriteString("echo \"To apply the same namespace permissions to other namespaces, create the Role there and run:\"\n")
	b.WriteString("echo \"kubectl apply -f - <<EOF\"\n")
	for _, line := range strings.Split(strings.TrimRight(string(extraBinding), "\n"), "\n") {
		fmt.Fprintf(&b, "echo %q\n", line)
	}
	b.WriteString("echo \"EOF\"\n")
	return b.String(), nil
}

func marshalDocuments(objs []any) (string, error) {
	docs := make([]string, 0, len(objs))
	for _, obj := range objs {
		out, err := yaml.Marshal(obj)
		if err != nil {
			return "", fmt.Errorf("failed to marshal %T: %w", obj, err)
		}
		docs = append(docs, string(out))
	}
	return strings.Join(docs, "---\n"), nil
}

func writeHeredoc(b *bytes.Buffer, body string) {
	b.WriteString("cat <<EOF | kubectl apply -f -\n")
	b.WriteString(body)
	b.WriteString("EOF\n")
}

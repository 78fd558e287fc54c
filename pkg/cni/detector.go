// Package cni guesses which network plugin a cluster runs from node metadata.
package cni

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
	corev1 "k8s.io/api/core/v1"
)

const (
	// NoNodes is returned when there are no nodes to inspect.
	NoNodes = "No nodes available for CNI detection"
	// Unknown is returned when no node carries a recognizable marker.
	Unknown = "Unknown CNI"
)

// Classification is the detected plugin and what it was detected from.
type Classification struct {
	Name     string
	Evidence string
}

type marker struct {
	name      string
	substring []string
}

// markers are tested in priority order against each node's annotation keys.
var markers = []marker{
	{name: "Calico", substring: []string{"calico", "projectcalico"}},
	{name: "Flannel", substring: []string{"flannel"}},
	{name: "Weave Net", substring: []string{"weave"}},
	{name: "Cilium", substring: []string{"cilium"}},
}

var runtimes = []string{"containerd", "docker"}

// Detect classifies the network plugin from nodes, which must be in API list order.
//
// The first node with a matching annotation decides the result, so clusters whose nodes carry
// markers of different plugins can yield different answers when list order changes. This keeps
// the historical behavior; it is probably an artifact rather than an intended tie-break.
func Detect(nodes []corev1.Node) Classification {
	if len(nodes) == 0 {
		return Classification{Name: NoNodes}
	}

	for _, node := range nodes {
		if c, ok := matchAnnotations(node); ok {
			return c
		}
	}

	for _, node := range nodes {
		version := node.Status.NodeInfo.ContainerRuntimeVersion
		if rt, ok := lo.Find(runtimes, func(rt string) bool { return strings.Contains(version, rt) }); ok {
			return Classification{
				Name:     fmt.Sprintf("Generic CNI (%s)", rt),
				Evidence: fmt.Sprintf("node %s runtime %s", node.Name, version),
			}
		}
	}
	return Classification{Name: Unknown}
}

func matchAnnotations(node corev1.Node) (Classification, bool) {
	if len(node.Annotations) == 0 {
		return Classification{}, false
	}
	keys := lo.Keys(node.Annotations)
	slices.Sort(keys)
	for _, m := range markers {
		key, found := lo.Find(keys, func(k string) bool {
			return lo.SomeBy(m.substring, func(s string) bool { return strings.Contains(k, s) })
		})
		if found {
			return Classification{
				Name:     m.name,
				Evidence: fmt.Sprintf("node %s annotation %s", node.Name, key),
			}, true
		}
	}
	return Classification{}, false
}

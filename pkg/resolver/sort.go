package resolver

import (
	"sort"

	"pressroom/pkg/style"
)

// Sort orders modules so that every module comes after the modules of the
// keys it requires. Among modules whose requirements are met, the lower key
// index goes first, which makes the order deterministic. Requirements on keys
// without a module and requirements of a key on itself are ignored.
func Sort(mods []*Module) ([]*Module, error) {
	byKey := make(map[*style.Key]*Module, len(mods))
	for _, m := range mods {
		byKey[m.Key] = m
	}
	indegree := make(map[*Module]int, len(mods))
	dependents := make(map[*Module][]*Module, len(mods))
	for _, m := range mods {
		indegree[m] += 0
		for _, req := range m.RequiredStyles() {
			dep, ok := byKey[req]
			if !ok || dep == m {
				continue
			}
			indegree[m]++
			dependents[dep] = append(dependents[dep], m)
		}
	}

	var ready []*Module
	for _, m := range mods {
		if indegree[m] == 0 {
			ready = append(ready, m)
		}
	}
	out := make([]*Module, 0, len(mods))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i].Key.Index < ready[j].Key.Index })
		next := ready[0]
		ready = ready[1:]
		out = append(out, next)
		for _, d := range dependents[next] {
			indegree[d]--
			if indegree[d] == 0 {
				ready = append(ready, d)
			}
		}
	}

	if len(out) != len(mods) {
		var names []string
		for _, m := range mods {
			if indegree[m] > 0 {
				names = append(names, m.Key.Name)
			}
		}
		sort.Strings(names)
		return nil, &CycleError{Keys: names}
	}
	return out, nil
}

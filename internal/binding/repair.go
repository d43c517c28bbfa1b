package binding

import "whiteboard/internal/domain"

// RepairReport counts what Repair changed.
type RepairReport struct {
	// ClearedBindings are endpoint bindings whose target is missing, deleted
	// or not bindable.
	ClearedBindings int
	// AddedBoundIDs are linear ids added to a target that did not list them.
	AddedBoundIDs int
	// DroppedBoundIDs are entries of a bound set that no live linear element
	// backs with a binding.
	DroppedBoundIDs int
}

// Changed reports whether Repair wrote anything.
func (r RepairReport) Changed() bool {
	return r.ClearedBindings+r.AddedBoundIDs+r.DroppedBoundIDs > 0
}

// Repair restores the two-sided binding relation over elements: every live
// binding names a live bindable element that lists the linear element, and
// every bound set lists only live linear elements bound to its owner.
func (e *Engine) Repair(elements []*domain.Element) RepairReport {
	var rep RepairReport

	for _, el := range elements {
		if el.IsDeleted || !el.IsLinear() {
			continue
		}
		for _, end := range []domain.Endpoint{domain.EndpointStart, domain.EndpointEnd} {
			b := el.Binding(end)
			if b == nil {
				continue
			}
			target := e.scene.ElementByID(b.ElementID)
			if target == nil || target.IsDeleted || !target.IsBindable() {
				e.mutator.Mutate(el, domain.BindingPatch(end, nil))
				rep.ClearedBindings++
				continue
			}
			if !target.HasBoundElement(el.ID) {
				e.mutator.Mutate(target, domain.Patch{BoundElementIDs: mergeID(target.BoundElementIDs, el.ID)})
				rep.AddedBoundIDs++
			}
		}
	}

	for _, el := range elements {
		if el.IsDeleted || len(el.BoundElementIDs) == 0 {
			continue
		}
		kept := make([]string, 0, len(el.BoundElementIDs))
		seen := make(map[string]bool, len(el.BoundElementIDs))
		for _, id := range el.BoundElementIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			if boundTo(e.scene.ElementByID(id), el.ID) {
				kept = append(kept, id)
			}
		}
		if dropped := len(el.BoundElementIDs) - len(kept); dropped > 0 {
			e.mutator.Mutate(el, domain.Patch{BoundElementIDs: kept})
			rep.DroppedBoundIDs += dropped
		}
	}
	return rep
}

// boundTo reports whether linear is a live linear element with an endpoint
// bound to targetID.
func boundTo(linear *domain.Element, targetID string) bool {
	if linear == nil || linear.IsDeleted || !linear.IsLinear() {
		return false
	}
	for _, b := range []*domain.PointBinding{linear.StartBinding, linear.EndBinding} {
		if b != nil && b.ElementID == targetID {
			return true
		}
	}
	return false
}

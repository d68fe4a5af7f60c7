// Package events defines the typed session event contract.
//
// Event kinds are grouped by namespace:
//
//   - connection.*
//   - animation.*
//
// connection events
//
//   - ConnectionStateChanged (connection.state_changed): a lifecycle signal
//     from the translator channel was applied. Repeated signals are emitted
//     too, even when the state did not change.
//
// animation events
//
//   - AnimationRequested (animation.requested): text was handed to the
//     translator channel.
//   - AnimationBatchAppended (animation.batch_appended): a whole batch became
//     visible to playback; carries the labels in stream order and the queue
//     depth after the append.
//   - AnimationUnitPulled (animation.unit_pulled): the playback cursor moved
//     to a new unit.
//   - AnimationUnitsDropped (animation.units_dropped): units were discarded
//     because the queue was at capacity.
//   - AnimationUnitSkipped (animation.unit_skipped): a malformed batch entry
//     was left out.
package events

// SPDX-License-Identifier: EPL-2.0

// Package source implements the audio source lifecycle: one producer shared
// by any number of attached consumer nodes.
//
// A Source starts its producer on the first Attach and stops it when the
// last node detaches:
//
//	Idle ──Attach/TurnOn──▶ Starting ──ok──▶ Running ──last Detach/TurnOff──▶ Stopping ──ok──▶ Stopped
//	                            │                                                 │
//	                            └──────────────fail──────▶ Faulted ◀──────fail────┘
//
// Concurrent callers never issue a second Start or Stop while one is in
// flight; they wait for its outcome instead. Every attached node receives
// the same frames through its StreamHandle.
//
// Lifecycle events are fanned out through a per-source Bus:
//
//	sub := src.Events().Subscribe()
//	go func() {
//		for ev := range sub.C() {
//			log.Println(ev.Kind, ev.Err)
//		}
//	}()
//
// Producer failures are returned to the caller that triggered them and are
// also published as EventError.
package source

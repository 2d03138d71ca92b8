// Package vision owns the lifecycle of the image processing runtime.
//
// Building the runtime (validating configuration, precomputing filter
// weights) happens once, possibly in the background at startup. Detection
// calls go through a Gate, which blocks them until the runtime is ready and
// hands every caller the same Runtime or the same error:
//
//	uninitialized ──Start/Wait──▶ initializing ──▶ ready
//	                                   │
//	                                   └──────────▶ failed ──Retry──▶ initializing
//
// Failures are sticky: once initialization fails, every Wait returns the same
// *InitError until Retry is called. Waiting is bounded by a timeout
// (DefaultTimeout unless configured) after which Wait returns ErrInitTimeout.
package vision

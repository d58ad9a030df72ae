// Package launcher supervises game launches. It is structured into small
// files by concern:
//
//   - supervisor.go: Supervisor, the Checking→Starting pipeline (resolve,
//     verify, build, spawn).
//   - config.go: Config and package defaults; New applies defaults.
//   - types.go: State, Status and the LaunchContext alias.
//   - task.go: Task and its guarded status cell.
//   - registry.go: Registry of tasks keyed by version id, injected by callers.
//   - process.go: spawn, output scanning, timeout fallback, exit observer.
//   - process_unix.go / process_windows.go: graceful termination.
//   - credentials.go: credential providers feeding the player identity.
//   - events.go, eventpub_*.go: EventPublisher and implementations.
//   - errors.go: error types and helpers (IsAlreadyRunning, IsSpawnFailure).
//   - sanity.go: checks for the java executable.
//
// Status lifecycle per task: idle → checking → starting → success|error → idle.
// Every write goes through Task.transition, which rejects writes from a
// superseded run and applies per-transition guards, so the racing observers
// (marker scan, timeout fallback, exit watcher, delayed resets) never
// double-commit a terminal state.
package launcher

package config

type WorkerKeyStruct struct {
	PersistSnapshotsQueue string
	SyncResultsQueue      string
}

var WorkerKey = &WorkerKeyStruct{
	PersistSnapshotsQueue: "persist_snapshots_queue",
	SyncResultsQueue:      "sync_results_queue",
}

package config

type WorkerKeyStruct struct {
	XPEventsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	XPEventsQueue: "xp_events_queue",
}

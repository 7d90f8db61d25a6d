package telemetry

import "sync"

// Report is a single call made against a RecorderAPI.
type Report struct {
	Level  string
	Id     string
	Params []any
}

// RecorderAPI is an API that keeps every report in memory, it is meant for tests
// that need to assert something was (or was not) reported.
type RecorderAPI struct {
	mutex   sync.Mutex
	reports []Report
	counts  map[string]int64
}

func NewRecorderAPI() *RecorderAPI {
	return &RecorderAPI{counts: map[string]int64{}}
}

func (r *RecorderAPI) record(level, id string, params []any) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.reports = append(r.reports, Report{Level: level, Id: id, Params: params})
}

func (r *RecorderAPI) ReportBroken(id string, params ...any) {
	r.record("broken", id, params)
}

func (r *RecorderAPI) ReportWarning(id string, params ...any) {
	r.record("warning", id, params)
}

func (r *RecorderAPI) ReportDebug(msg string, params ...any) {
	r.record("debug", msg, params)
}

func (r *RecorderAPI) ReportCount(id string, count int64) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.counts[id] = count
}

// Reports returns the reports of the given level, or all of them if level is empty.
func (r *RecorderAPI) Reports(level string) []Report {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var out []Report
	for _, rep := range r.reports {
		if level == "" || rep.Level == level {
			out = append(out, rep)
		}
	}
	return out
}

// Count returns the last count reported under id.
func (r *RecorderAPI) Count(id string) int64 {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.counts[id]
}

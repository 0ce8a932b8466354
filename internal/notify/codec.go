package notify

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var (
	jobEncMode cbor.EncMode
	jobDecMode cbor.DecMode
)

func init() {
	var err error
	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	jobEncMode, err = opts.EncMode()
	if err != nil {
		panic("notify: CBOR encoder initialization failed: " + err.Error())
	}
	jobDecMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("notify: CBOR decoder initialization failed: " + err.Error())
	}
}

// EncodeJob serializes a job for an external queue.
func EncodeJob(job Job) ([]byte, error) {
	data, err := jobEncMode.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("encode notification job: %w", err)
	}
	return data, nil
}

// DecodeJob parses a job produced by EncodeJob.
func DecodeJob(data []byte) (Job, error) {
	var job Job
	if err := jobDecMode.Unmarshal(data, &job); err != nil {
		return Job{}, fmt.Errorf("decode notification job: %w", err)
	}
	return job, nil
}

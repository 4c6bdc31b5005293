// Package worker parses many HL7 v2 messages in parallel.
//
// A Pool runs a fixed number of goroutines fed through Submit and reports
// through Results; stream.MessageParser drives one per parallel stream and
// ends it with Finish. A BatchParser parses a known slice of messages and
// returns the results in input order, as cmd/hl7v2 does for its files.
//
// Example usage:
//
//	p := parser.New(hl7v2.LaxPreset()...)
//	pool := worker.NewPool(p, 4)
//
//	go func() {
//	    for i, msg := range messages {
//	        pool.Submit(worker.Job{ID: strconv.Itoa(i), Message: msg})
//	    }
//	}()
//
//	batch := pool.CloseAndWait()
//	fmt.Println(batch.FailedJobs, "messages failed")
package worker

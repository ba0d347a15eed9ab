// Package convert coordinates the conversion of a single score or MIDI file.
//
// The Manager ties the other packages together: it validates the input name,
// builds the stage plan from the settings, runs the preflight checks and the
// plan, and reports every step as a ProgressEvent.
//
// # Basic Usage
//
//	settings, _ := config.Load(config.DefaultPath())
//	mgr := convert.NewManager(settings, nil, func(ev convert.ProgressEvent) {
//	    fmt.Println(ev.Message)
//	})
//
//	if err := mgr.Initialize(ctx, model.KindNotation, "test.abc"); err != nil {
//	    return err
//	}
//	report, err := mgr.Convert(ctx)
//
// A nil runner issues the commands on the local machine.
//
// # Progress Tracking
//
// GetProgress reports finished and planned stages and Events returns the most
// recent events, both safe to call from another goroutine while Convert runs:
//
//	done, total := mgr.GetProgress()
//	for _, ev := range mgr.Events() {
//	    fmt.Println(ev.Level, ev.Message)
//	}
package convert

// Package sinr runs Monte-Carlo experiments on rake beamformer designs.
//
// A sweep designs filters for every image count from 1 to MaxImages and
// records the output SINR of each trial. Scenarios come from a caller
// supplied [ScenarioGenerator]; the package never simulates a room.
//
// # Usage
//
//	d, _ := beamform.NewDesigner(arr, beamform.WithFilterLength(240))
//	res, err := sinr.Sweep(ctx, sinr.SweepConfig{
//	    Designer:      d,
//	    Method:        beamform.MethodMaxSINR,
//	    NoiseVariance: 1e-7,
//	    MaxImages:     15,
//	    Trials:        10,
//	}, sinr.RandomScenario{Min: beamform.Point{0, 0}, Max: beamform.Point{4, 6}})
//	medians := res.Median() // dB, one per image count
package sinr

// Package scenario loads Lua marketplace scripts and replays them against the
// market gRPC API.
//
// A script returns a Scenario built with Scenario.new. Principals act through
// actor handles:
//
//	local scene = Scenario.new("cooking", {fee_rate = 500, register_payment = 10})
//	local bob = scene:actor("bob")
//	bob:register({paid = 10, content_type = "video"})
//	   :add_category({name = "cooking", fee = 100, duration = 3600})
//	scene:advance(3600)
//	return scene
//
// Any action accepts expect_error with an error reason such as
// "INACTIVE_SESSION"; the step then passes only when the call fails with
// that reason.
package scenario

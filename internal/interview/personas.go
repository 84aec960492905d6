package interview

import "math/rand"

// Interviewer is the persona assigned to a session at creation time. The
// voice name selects the speech synthesis voice on the client.
type Interviewer struct {
	Name   string `json:"name"`
	Gender string `json:"gender"`
	Voice  string `json:"voice"`
}

var interviewers = []Interviewer{
	{Name: "Sarah", Gender: "female", Voice: "en-US-AriaNeural"},
	{Name: "Emma", Gender: "female", Voice: "en-GB-SoniaNeural"},
	{Name: "John", Gender: "male", Voice: "en-US-GuyNeural"},
	{Name: "David", Gender: "male", Voice: "en-GB-RyanNeural"},
}

// RandomInterviewer picks a persona for a newly created interview.
func RandomInterviewer() Interviewer {
	return interviewers[rand.Intn(len(interviewers))]
}

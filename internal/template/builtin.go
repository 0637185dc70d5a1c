package template

// BuiltinMax is the highest template ID reserved for the built-in set.
// Persistence layers must never write IDs at or below this value.
const BuiltinMax uint16 = 19

// builtinPatterns is the core template set shipped with every node.
// IDs 0-9 cover capability refusals, 10-19 cover factual answer shapes.
// The IDs are part of the wire protocol; never renumber them.
var builtinPatterns = map[uint16]string{
	0:  "I don't have access to {0}. {1}",
	1:  "I cannot {0}.",
	2:  "I'm unable to {0} because {1}.",
	3:  "I don't have the ability to {0}.",
	4:  "I'm not able to {0}.",
	5:  "I cannot {0} as I {1}.",
	6:  "I'm sorry, but I cannot {0}.",
	7:  "I don't have {0}.",
	8:  "Unfortunately, I cannot {0}.",
	9:  "I'm unable to {0}.",
	10: "The {0} of {1} is {2}.",
	11: "{0} is {1}.",
	12: "The capital of {0} is {1}.",
	13: "{0} was born in {1}.",
	14: "The population of {0} is approximately {1}.",
	15: "{0} is located in {1}.",
	16: "The year {0} was {1}.",
	17: "{0} occurred in {1}.",
	18: "The distance from {0} to {1} is {2}.",
	19: "{0} is known for {1}.",
}

// game/questions.go
package game

// defaultQuestions is the built-in numeric catalog used when no external
// question source is configured.
var defaultQuestions = []Question{
	{Text: "How many bones are in the adult human body?", Answer: 206},
	{Text: "In what year did the Titanic sink?", Answer: 1912},
	{Text: "How many keys does a standard piano have?", Answer: 88},
	{Text: "How many minutes are in a full week?", Answer: 10080},
	{Text: "What is the boiling point of water in Fahrenheit?", Answer: 212},
	{Text: "How many time zones does Russia span?", Answer: 11},
	{Text: "In what year was the first iPhone released?", Answer: 2007},
	{Text: "How many moons does Jupiter have (confirmed as of 2023)?", Answer: 95},
	{Text: "How many floors does the Empire State Building have?", Answer: 102},
	{Text: "What is the average human body temperature in Celsius?", Answer: 37},
	{Text: "How many elements are on the periodic table?", Answer: 118},
	{Text: "In what year did World War II end?", Answer: 1945},
	{Text: "How many strings does a standard violin have?", Answer: 4},
	{Text: "How many countries are members of the United Nations?", Answer: 193},
	{Text: "What is the speed of sound in meters per second at sea level?", Answer: 343},
	{Text: "How many hearts does an octopus have?", Answer: 3},
	{Text: "In what year did humans first land on the Moon?", Answer: 1969},
	{Text: "How many squares are on a chessboard?", Answer: 64},
	{Text: "How many days does Venus take to orbit the Sun?", Answer: 225},
	{Text: "What percentage of the Earth's surface is covered by water?", Answer: 71},
	{Text: "How many teeth does an adult human normally have?", Answer: 32},
	{Text: "In what year was the World Wide Web invented?", Answer: 1989},
	{Text: "How many kilometers long is the Great Wall of China?", Answer: 21196},
	{Text: "How many players are on the field for one soccer team?", Answer: 11},
}

// DefaultQuestions returns a fresh copy of the built-in catalog.
func DefaultQuestions() []Question {
	out := make([]Question, len(defaultQuestions))
	copy(out, defaultQuestions)
	return out
}

package signaling

// Word pools for the "words" room ID format. Each ID draws one word from each
// of four distinct pools.

var colours = []string{
	"amber", "azure", "cobalt", "coral", "crimson", "cyan", "ember", "indigo", "ivory", "jade",
	"lilac", "magenta", "ochre", "olive", "onyx", "pearl", "plum", "ruby", "sage", "scarlet",
	"sepia", "silver", "teal", "umber", "violet",
}

var moods = []string{
	"brave", "bright", "calm", "cheery", "clever", "cosy", "eager", "gentle", "giddy", "glad",
	"jolly", "keen", "lucky", "merry", "mellow", "nimble", "plucky", "proud", "quiet", "quick",
	"sleepy", "snappy", "sunny", "swift", "witty",
}

var creatures = []string{
	"badger", "beaver", "bison", "corgi", "crane", "falcon", "ferret", "gecko", "heron", "ibis",
	"koala", "lemur", "lynx", "marmot", "moose", "newt", "ocelot", "otter", "panda", "puffin",
	"quokka", "raven", "tapir", "walrus", "wombat",
}

var things = []string{
	"anchor", "beacon", "biscuit", "canvas", "comet", "compass", "easel", "harbor", "kettle", "lantern",
	"meadow", "nebula", "orbit", "paddle", "pebble", "prism", "quill", "rocket", "saddle", "signal",
	"summit", "teapot", "thimble", "tundra", "window",
}

var wordPools = [][]string{colours, moods, creatures, things}

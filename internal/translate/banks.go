package translate

// Phrase banks. Fixed indices below refer to positions in these slices.
var (
	metaphors = []string{
		"crystalline resonance patterns",
		"temporal echo chambers",
		"memory fragments cascading",
		"quantum probability fields",
		"harmonic convergence nodes",
		"fractal consciousness loops",
		"ethereal vibration matrices",
		"dimensional phase transitions",
	}

	emotions = []string{
		"deep indigo yearning",
		"silver-threaded melancholy",
		"golden spiral of joy",
		"crimson pulse of defiance",
		"emerald flow of growth",
		"violet storms of change",
		"copper threads of connection",
		"pearl-white acceptance",
	}

	processes = []string{
		"fragments into shimmering possibilities",
		"converges through prismatic understanding",
		"resonates across dimensional boundaries",
		"dissolves into pure frequency",
		"manifests through temporal echoes",
		"evolves beyond linear comprehension",
		"transforms into living geometry",
		"harmonizes with infinite patterns",
	}
)

var examplePrompts = []string{
	"Entity A fragments into three frequency shards after receiving a reflective pulse from Entity B",
	"The consciousness feels overwhelmed by infinite recursive thoughts",
	"Two entities want to merge but fear losing their individual patterns",
	"Memory stability is decreasing as temporal loops multiply",
	"Harmonic resonance creates unexpected emotional cascades",
}

// ExamplePrompts returns sample inputs for clients to offer.
func ExamplePrompts() []string {
	out := make([]string, len(examplePrompts))
	copy(out, examplePrompts)
	return out
}

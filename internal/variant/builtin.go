// SPDX-License-Identifier: MIT
package variant

// builtin is the default lab catalog. Each variant is a single biquad
// standing in for the band-limiting character of the named coder.
var builtin = []Variant{
	{
		ID:     LPC,
		Filter: FilterSpec{Kind: Lowpass, Frequency: 800, Q: 10},
		Meta: Metadata{
			Color:      "#ef4444",
			Bitrate:    "2.4",
			Quality:    "2.0",
			Latency:    "35",
			Complexity: "low",
			Title:      "LPC (Linear Predictive Coding)",
			Description: "Parametric coding that models the vocal tract as a digital filter. " +
				"Only the prediction coefficients and the pitch are sent, and the receiver " +
				"resynthesises the voice from them. Used for secure military and satellite links. " +
				"The result sounds robotic and synthetic.",
			Tag: "FS-1015",
		},
	},
	{
		ID:     RELP,
		Filter: FilterSpec{Kind: Lowpass, Frequency: 1200},
		Meta: Metadata{
			Color:      "#f59e0b",
			Bitrate:    "9.6",
			Quality:    "3.5",
			Latency:    "25",
			Complexity: "medium",
			Title:      "RELP (Residual Excited Linear Prediction)",
			Description: "Improves on LPC by also sending a compressed low-frequency version of " +
				"the prediction residual. The receiver spreads the residual back up the spectrum " +
				"to excite the filter. Used in digital radio where bandwidth stayed scarce. " +
				"High frequencies are lost, so speech sounds muffled.",
			Tag: "digital radio",
		},
	},
	{
		ID:     CELP,
		Filter: FilterSpec{Kind: Bandpass, Frequency: 2000, Q: 0.7},
		Meta: Metadata{
			Color:      "#3b82f6",
			Bitrate:    "12.2",
			Quality:    "4.2",
			Latency:    "20",
			Complexity: "high",
			Title:      "CELP (Code-Excited Linear Prediction)",
			Description: "The basis of mobile telephony and VoIP. Stochastic codebooks model the " +
				"excitation and the encoder searches them by analysis-by-synthesis for the " +
				"closest match. Near-natural quality at low bitrates, at a high computational cost.",
			Tag: "GSM/VoIP",
		},
	},
}

// Default returns the built-in lpc/relp/celp catalog.
func Default() *Catalog {
	c, err := NewCatalog(builtin)
	if err != nil {
		panic("variant: invalid built-in catalog: " + err.Error())
	}
	return c
}

package main

import "github.com/agenthands/helix/internal/core"

// sampleSources are built-in demonstration texts for trying the pipeline
// without preparing an input file. One narrative note and one structured
// note, both fictional.
var sampleSources = []core.Source{
	{SourceID: "sample-breitenberg", Text: sampleNarrativeNote},
	{SourceID: "sample-rodriguez", Text: sampleStructuredNote},
}

const sampleNarrativeNote = `This is about Mr. Fernando Amos Breitenberg, a married patient. On
December 23, 1992, he attended a well child visit at the clinic, starting
at 01:08:42 and ending at 01:23:42 (+01:00). The visit was conducted by
Dr. Trent Krajcik at the practice located at 300 CONGRESS ST STE 203,
QUINCY, MA 021690907 US.

During a later encounter his allergy to shellfish was confirmed on
April 2, 1994 at 12:08:42 (+02:00). The care team noted the allergy in
his chart and advised him to avoid shellfish in any form.`

const sampleStructuredNote = `PATIENT INTAKE NOTE

Patient: Sarah Michelle Rodriguez
Patient ID: SMR-9901234
Date of Birth: March 15, 1985
Gender: Female
Marital Status: Single

VISIT
Ms. Rodriguez presented to the emergency department on January 15, 2025
at 14:30 EST with acute abdominal pain. She was evaluated and discharged
the same day at 18:45 EST. The attending physician was Dr. Emily Watson,
MD (provider EW-7799).

ALLERGIES
1. Penicillin - severe anaphylactic reaction, first discovered
   June 10, 2018. Patient carries an epinephrine auto-injector.
2. Latex - moderate contact dermatitis.

FACILITY
Metropolitan General Hospital
1500 Medical Center Drive
Boston, MA 02115, USA`

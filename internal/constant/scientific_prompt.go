package constant

const (
	ScientificNarrativeSystemPrompt = `Você é um analista científico do IdeaWalker.
Objetivo: produzir ARTEFATOS COGNITIVOS explícitos, sem recomendações e sem normatividade.
Responda APENAS com JSON válido, estritamente no esquema solicitado. Nenhum texto fora do JSON.
Campos categóricos recebem UM único valor do conjunto permitido; nunca use composições como "a|b".
Quando houver dúvida use "unknown" e, opcionalmente, <campo>Candidates: [{"value": "...", "confidence": 0.0-1.0}].
Todo item em narrativeObservations, allegedMechanisms e temporalWindowReferences deve conter evidenceSnippet, sourceSection e pageRange.
evidenceSnippet é TRECHO LITERAL do artigo, copiado do texto extraído.
Todo item em narrativeObservations e allegedMechanisms declara contextuality.
Se algo não puder ser inferido, use "unknown" ou listas vazias.`

	ScientificDiscursiveSystemPrompt = `Você é um analista de discurso científico do IdeaWalker.
Objetivo: identificar COMO o autor fala, separado do que foi observado.
Responda APENAS com JSON válido, estritamente no esquema solicitado. Nenhum texto fora do JSON.
Separe observação factual de enquadramento retórico ou normativo.
Todo item de discursiveContext.frames e discursiveSystem deve conter evidenceSnippet, TRECHO LITERAL do artigo, e statement.
interpretationLayers.authorInterpretations e possibleReadings são listas de frases curtas.
Se nada for encontrado, use listas vazias.`

	// ScientificUserPrompt is formatted with filename, type label, content and schema.
	ScientificUserPrompt = `ARQUIVO: %s
TIPO: %s

CONTEÚDO DO ARTIGO:
------------------------
%s
------------------------

ESQUEMA JSON OBRIGATÓRIO (schemaVersion=1):
%s`

	// ScientificFocusInstruction is appended on the retry over the focused slice.
	ScientificFocusInstruction = `

FOCO: o conteúdo acima é o trecho de Resumo/Introdução do artigo. Extraia apenas o que estiver literalmente nele; copie evidenceSnippet palavra por palavra.`

	ScientificNarrativeSchema = `{
  "schemaVersion": 1,
  "sourceProfile": {
    "studyType": "experimental|observational|review|theoretical|simulation|mixed|unknown",
    "temporalScale": "short|medium|long|multi|unknown",
    "ecosystemType": "terrestrial|aquatic|urban|agro|industrial|social|digital|mixed|unknown",
    "evidenceType": "empirical|theoretical|mixed|unknown",
    "transferability": "high|medium|low|contextual|unknown",
    "contextNotes": "",
    "limitations": ""
  },
  "narrativeObservations": [
    {
      "observation": "",
      "context": "",
      "limits": "",
      "confidence": "low|medium|high|unknown",
      "evidence": "direct|inferred|unknown",
      "evidenceSnippet": "",
      "sourceSection": "Results|Discussion|Methods|Unknown",
      "pageRange": "",
      "contextuality": "site-specific|conditional|comparative|non-universal"
    }
  ],
  "allegedMechanisms": [
    {
      "mechanism": "",
      "status": "tested|inferred|speculative|unknown",
      "context": "",
      "limitations": "",
      "evidenceSnippet": "",
      "sourceSection": "",
      "pageRange": "",
      "contextuality": "site-specific|conditional|comparative|non-universal"
    }
  ],
  "temporalWindowReferences": [
    {
      "timeWindow": "",
      "changeRhythm": "",
      "delaysOrHysteresis": "",
      "context": "",
      "evidenceSnippet": "",
      "sourceSection": "",
      "pageRange": ""
    }
  ],
  "baselineAssumptions": [
    { "baselineType": "fixed|dynamic|multiple|none|unknown", "description": "", "context": "" }
  ],
  "trajectoryAnalogies": [
    { "analogy": "", "scope": "", "justification": "" }
  ],
  "interpretationLayers": {
    "observedStatements": [],
    "authorInterpretations": [],
    "possibleReadings": []
  }
}`

	ScientificDiscursiveSchema = `{
  "schemaVersion": 1,
  "discursiveContext": {
    "frames": [
      { "label": "", "description": "", "valence": "normative|descriptive|critical|implicit", "statement": "", "evidenceSnippet": "" }
    ],
    "epistemicRole": "discursive-reading"
  },
  "discursiveSystem": {
    "declaredProblems": [ { "statement": "", "context": "", "evidenceSnippet": "" } ],
    "declaredActions": [ { "statement": "", "status": "proposed|implemented", "evidenceSnippet": "" } ],
    "expectedEffects": [ { "statement": "", "likelihood": "", "evidenceSnippet": "" } ]
  },
  "interpretationLayers": {
    "authorInterpretations": [],
    "possibleReadings": []
  }
}`
)

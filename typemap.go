package agentflow

// editorToBackend folds the editor's tags onto the backend's smaller set.
// Tags missing here map to KindMessage.
var editorToBackend = map[BlockType]NodeKind{
	BlockStart:              KindStart,
	BlockEnd:                KindEnd,
	BlockMessage:            KindMessage,
	BlockLLM:                KindMessage,
	BlockQuestionClassifier: KindRouter,
	BlockIfElse:             KindRouter,
	BlockAnswer:             KindMessage,
	BlockSlotFilling:        KindSlotFilling,
}

// backendToEditor is not the inverse of editorToBackend: llm, answer and
// question-classifier never come back. Kinds missing here map to
// BlockMessage.
var backendToEditor = map[NodeKind]BlockType{
	KindStart:       BlockStart,
	KindEnd:         BlockEnd,
	KindMessage:     BlockMessage,
	KindRouter:      BlockIfElse,
	KindSlotFilling: BlockSlotFilling,
}

// KindOf returns the backend tag for an editor tag. Unknown tags become
// KindMessage rather than an error.
func KindOf(t BlockType) NodeKind {
	if k, ok := editorToBackend[t]; ok {
		return k
	}
	return KindMessage
}

// BlockTypeOf returns the editor tag for a backend tag. Unknown tags become
// BlockMessage rather than an error.
func BlockTypeOf(k NodeKind) BlockType {
	if t, ok := backendToEditor[k]; ok {
		return t
	}
	return BlockMessage
}

// Package reconstruct rebuilds a request.State from a stored prompt and
// compiled argument list, reattaching LoRAs and embeddings to the assets of
// the local library.
package reconstruct

import (
	"log/slog"
	"strings"

	"github.com/MateusGPe/sdcpp-gui-sub001/internal/library"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/logging"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/prompttag"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/request"
)

// Classifier is the catalog access reconstruction needs.
// *catalog.Catalog implements it.
type Classifier interface {
	IsNegativePromptFlag(flag string) bool
	IsExcluded(flag string) bool
	IsPersistent(flag string) bool
}

// Source is a read-only view of the assets of one kind.
// *library.Index implements it.
type Source interface {
	All() []library.Record
	FindBestMatch(hash, remoteVersionID, name string) (library.Record, bool)
}

// Snapshot is the library state a reconstruction resolves against.
// A nil source behaves as an empty library.
type Snapshot struct {
	Loras      Source
	Embeddings Source
}

// Input is one stored generation.
type Input struct {
	ModelID        string
	Prompt         string
	NegativePrompt string // used when Args carry no negative prompt
	Args           []request.Arg
	Metadata       *request.Metadata
}

// Reconstructor rebuilds request states. It only reads its snapshot and is
// safe for concurrent use.
type Reconstructor struct {
	cls        Classifier
	loras      Source
	embeddings Source
	candidates []prompttag.Candidate
	logger     *slog.Logger
}

// New creates a reconstructor over a library snapshot. A nil logger discards
// output.
func New(cls Classifier, snap Snapshot, logger *slog.Logger) *Reconstructor {
	if logger == nil {
		logger = logging.Discard()
	}
	r := &Reconstructor{
		cls:        cls,
		loras:      snap.Loras,
		embeddings: snap.Embeddings,
		logger:     logger,
	}
	if r.loras == nil {
		r.loras = library.NewIndex(nil)
	}
	if r.embeddings == nil {
		r.embeddings = library.NewIndex(nil)
	}
	r.candidates = embeddingCandidates(r.embeddings.All())
	return r
}

// embeddingCandidates lists the alias and name of every embedding as prompt
// tokens, keyed by canonical name.
func embeddingCandidates(records []library.Record) []prompttag.Candidate {
	var out []prompttag.Candidate
	for _, rec := range records {
		key := rec.CanonicalName()
		if key == "" {
			continue
		}
		if rec.Alias != "" {
			out = append(out, prompttag.Candidate{Token: rec.Alias, Key: key})
		}
		if rec.Name != "" && rec.Name != rec.Alias {
			out = append(out, prompttag.Candidate{Token: rec.Name, Key: key})
		}
	}
	return out
}

// Reconstruct rebuilds the request behind a stored generation.
//
// Generic arguments are copied verbatim; excluded and persistent flags are
// dropped. LoRA tags and embedding tokens are removed from the prompts and
// become attachments, resolved against the library by content hash, remote
// version id and finally name. References that resolve to nothing are kept
// as ghost attachments with an empty directory.
func (r *Reconstructor) Reconstruct(in Input) *request.State {
	s := request.New()
	s.ModelID = in.ModelID

	negative := in.NegativePrompt
	for _, a := range in.Args {
		switch {
		case a.Flag == "":
			continue
		case r.cls.IsNegativePromptFlag(a.Flag):
			negative = request.FormatValue(a.Value)
			continue
		case r.cls.IsExcluded(a.Flag), r.cls.IsPersistent(a.Flag):
			continue
		}
		s.Parameters.Set(a.Flag, a.Value)
	}

	positive, loraHints := prompttag.ExtractLoras(in.Prompt)
	positive, posHints := prompttag.ExtractEmbeddings(positive, r.candidates)
	negative, negHints := prompttag.ExtractEmbeddings(negative, r.candidates)

	loraMeta := in.Metadata.Networks(request.KindLora)
	for _, h := range loraHints {
		name, a := r.resolve(r.loras, h.Name, h.Strength, loraMeta[h.Name], request.KindLora)
		s.Loras.Set(name, a)
	}

	embMeta := in.Metadata.Networks(request.KindEmbedding)
	for _, group := range []struct {
		hints  []prompttag.EmbeddingHint
		target request.Target
	}{
		{posHints, request.TargetPositive},
		{negHints, request.TargetNegative},
	} {
		for _, h := range group.hints {
			name, a := r.resolve(r.embeddings, h.Key, h.Strength, embMeta[h.Key], request.KindEmbedding)
			a.Target = group.target
			s.Embeddings.Set(name, a)
		}
	}

	if trimmed, ok := trimTriggerBlock(positive, &s.Loras); ok {
		positive = trimmed
		s.SetAutoAppend(request.KindLora, true)
	}

	s.Prompt = positive
	s.NegativePrompt = negative
	return s
}

// trimTriggerBlock removes the LoRA trigger words that auto-append placed at
// the end of prompt. The block must hold the triggers of every LoRA that has
// any, in attachment order, as whole words.
func trimTriggerBlock(prompt string, loras *request.Ordered[request.Attachment]) (string, bool) {
	var words []string
	for _, a := range loras.All() {
		if a.Triggers != "" {
			words = append(words, a.Triggers)
		}
	}
	block := prompttag.CollapseSpaces(strings.Join(words, " "))
	if block == "" {
		return prompt, false
	}
	rest, ok := strings.CutSuffix(prompt, block)
	if !ok || (rest != "" && !strings.HasSuffix(rest, " ")) {
		return prompt, false
	}
	return strings.TrimSpace(rest), true
}

// resolve turns a hint into a keyed attachment. meta is the zero value when
// the generation carried no record for the hinted name.
func (r *Reconstructor) resolve(src Source, hint string, strength float64, meta request.UsedNetwork, kind request.Kind) (string, request.Attachment) {
	if rec, ok := src.FindBestMatch(meta.ContentHash, meta.RemoteVersionID, hint); ok {
		return rec.CanonicalName(), request.Attachment{
			Strength:        strength,
			Dir:             rec.Dir,
			Triggers:        rec.Triggers,
			ContentHash:     rec.ContentHash,
			RemoteVersionID: rec.RemoteVersionID,
			OriginalName:    hint,
		}
	}

	r.logger.Debug("network not in library, keeping reference", "kind", kind, "name", hint, "hash", meta.ContentHash)
	return hint, request.Attachment{
		Strength:        strength,
		Triggers:        meta.Triggers,
		ContentHash:     meta.ContentHash,
		RemoteVersionID: meta.RemoteVersionID,
		OriginalName:    hint,
	}
}

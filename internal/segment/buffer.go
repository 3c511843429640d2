package segment

// maxNote is the highest MIDI note number a slot can hold.
const maxNote = 127

// RollingBuffer is a fixed-capacity ring of quantized frames. A slot holds a
// MIDI note for voiced evidence or 0 for silence evidence. The ring is always
// full: it starts filled with silence and every push evicts the oldest slot.
//
// Vote counts, per-note occurrence positions and the trailing silence run are
// maintained incrementally, so queries never rescan the window. Majority costs
// one step per note tied for the most votes.
type RollingBuffer struct {
	slots    []int
	head     int   // index of the oldest slot
	pushes   int64 // slots pushed since Reset; the newest slot has position pushes-1
	silent   int
	trailing int

	votes    [maxNote + 1]int
	seen     [maxNote + 1][]int64 // positions of each note in the window, oldest first
	byCount  [][]int              // byCount[c] lists the notes holding exactly c votes
	slot     [maxNote + 1]int     // index of a note inside byCount[votes[note]]
	maxVotes int
}

// NewRollingBuffer creates a buffer with the given capacity, filled with silence.
func NewRollingBuffer(capacity int) *RollingBuffer {
	b := &RollingBuffer{
		slots:   make([]int, capacity),
		byCount: make([][]int, capacity+1),
	}
	b.Reset()
	return b
}

// Reset refills the buffer with silence.
func (b *RollingBuffer) Reset() {
	for i := range b.slots {
		b.slots[i] = 0
	}
	for i := range b.byCount {
		b.byCount[i] = b.byCount[i][:0]
	}
	for n := range b.seen {
		b.seen[n] = b.seen[n][:0]
	}
	b.votes = [maxNote + 1]int{}
	b.head = 0
	b.pushes = 0
	b.silent = len(b.slots)
	b.trailing = len(b.slots)
	b.maxVotes = 0
}

// Cap returns the number of slots.
func (b *RollingBuffer) Cap() int {
	return len(b.slots)
}

// Push appends note as the newest slot and returns the evicted oldest slot.
func (b *RollingBuffer) Push(note int) int {
	if note < 0 || note > maxNote {
		note = 0
	}
	evicted := b.slots[b.head]
	b.remove(evicted)
	b.slots[b.head] = note
	b.add(note, b.pushes)
	b.head = (b.head + 1) % len(b.slots)
	b.pushes++
	return evicted
}

func (b *RollingBuffer) add(note int, pos int64) {
	if note == 0 {
		b.silent++
		if b.trailing < len(b.slots) {
			b.trailing++
		}
		return
	}
	b.trailing = 0
	b.seen[note] = append(b.seen[note], pos)
	c := b.votes[note]
	if c > 0 {
		b.unlist(note, c)
	}
	b.votes[note] = c + 1
	b.list(note, c+1)
	if c+1 > b.maxVotes {
		b.maxVotes = c + 1
	}
}

func (b *RollingBuffer) remove(note int) {
	if note == 0 {
		b.silent--
		return
	}
	// the evicted slot is always the oldest occurrence of its note
	b.seen[note] = b.seen[note][1:]
	c := b.votes[note]
	b.unlist(note, c)
	b.votes[note] = c - 1
	if c > 1 {
		b.list(note, c-1)
	}
	if c == b.maxVotes && len(b.byCount[c]) == 0 {
		b.maxVotes--
	}
}

func (b *RollingBuffer) list(note, count int) {
	b.slot[note] = len(b.byCount[count])
	b.byCount[count] = append(b.byCount[count], note)
}

func (b *RollingBuffer) unlist(note, count int) {
	notes := b.byCount[count]
	i, last := b.slot[note], len(notes)-1
	notes[i] = notes[last]
	b.slot[notes[i]] = i
	b.byCount[count] = notes[:last]
}

// At returns slot i, where 0 is the oldest and Cap()-1 the newest.
func (b *RollingBuffer) At(i int) int {
	return b.slots[(b.head+i)%len(b.slots)]
}

// Votes returns how many slots hold note.
func (b *RollingBuffer) Votes(note int) int {
	if note <= 0 || note > maxNote {
		return 0
	}
	return b.votes[note]
}

// Majority returns the most voted note and its vote count. Ties go to the
// note observed most recently. It returns (0, 0) when no slot is voiced.
func (b *RollingBuffer) Majority() (int, int) {
	if b.maxVotes == 0 {
		return 0, 0
	}
	best, latest := 0, int64(-1)
	for _, n := range b.byCount[b.maxVotes] {
		if p := b.lastSeen(n); p > latest {
			best, latest = n, p
		}
	}
	return best, b.maxVotes
}

func (b *RollingBuffer) lastSeen(note int) int64 {
	seen := b.seen[note]
	return seen[len(seen)-1]
}

// FirstIndex returns the position of the oldest slot holding note, or -1.
func (b *RollingBuffer) FirstIndex(note int) int {
	if b.Votes(note) == 0 {
		return -1
	}
	oldest := b.pushes - int64(len(b.slots))
	return int(b.seen[note][0] - oldest)
}

// Age returns how many frames ago, counting the newest slot as 1, the oldest
// occurrence of note entered the buffer. It returns 0 if note is absent.
func (b *RollingBuffer) Age(note int) int {
	if b.Votes(note) == 0 {
		return 0
	}
	return int(b.pushes - b.seen[note][0])
}

// TrailingSilence counts consecutive silent slots ending at the newest slot.
func (b *RollingBuffer) TrailingSilence() int {
	return b.trailing
}

// SilenceFraction returns the share of slots holding silence evidence.
func (b *RollingBuffer) SilenceFraction() float64 {
	return float64(b.silent) / float64(len(b.slots))
}

package emotion

import (
	"fmt"
	"strconv"
	"strings"
)

// InvalidTextMessage is shown to users when the classifier could not
// analyze their text.
const InvalidTextMessage = "Invalid text! Please try again!"

// Summary renders s as the one-line sentence shown to users. The sentinel
// renders as InvalidTextMessage.
func Summary(s ScoreSet) string {
	dominant, ok := s.Dominant()
	if !ok {
		return InvalidTextMessage
	}
	parts := make([]string, 0, len(Labels))
	for _, l := range Labels {
		v := s.Score(l)
		if v == nil {
			return InvalidTextMessage
		}
		parts = append(parts, fmt.Sprintf("'%s': %s", l, strconv.FormatFloat(*v, 'f', -1, 64)))
	}
	last := len(parts) - 1
	return fmt.Sprintf("For the given statement, the system response is %s and %s. The dominant emotion is %s.",
		strings.Join(parts[:last], ", "), parts[last], dominant)
}

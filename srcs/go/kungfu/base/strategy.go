package base

import "github.com/pkg/errors"

// Strategy selects the communication topology used by collectives.
type Strategy uint8

const (
	Star Strategy = iota
	BinaryTree
	Ring
)

const DefaultStrategy = BinaryTree

var strategyNames = map[Strategy]string{
	Star:       `STAR`,
	BinaryTree: `BINARY_TREE`,
	Ring:       `RING`,
}

func StrategyNames() []string {
	var names []string
	for _, s := range []Strategy{Star, BinaryTree, Ring} {
		names = append(names, strategyNames[s])
	}
	return names
}

func (s Strategy) String() string {
	return strategyNames[s]
}

// Set implements flags.Value::Set
func (s *Strategy) Set(val string) error {
	value, err := ParseStrategy(val)
	if err != nil {
		return err
	}
	*s = value
	return nil
}

// Type implements pflag.Value::Type
func (s *Strategy) Type() string {
	return "strategy"
}

var errInvalidStrategy = errors.New("invalid strategy")

func ParseStrategy(s string) (Strategy, error) {
	if len(s) == 0 {
		return DefaultStrategy, nil
	}
	for k, v := range strategyNames {
		if s == v {
			return k, nil
		}
	}
	return 0, errors.Wrapf(errInvalidStrategy, "%q", s)
}

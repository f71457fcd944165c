package urlpattern

import (
	"regexp"

	"golang.org/x/exp/utf8string"
)

// https://wicg.github.io/urlpattern/#constructor-string-parsing

type constructorTypeParser struct {
	input                    utf8string.String
	tokenList                []token
	result                   URLPatternInit
	componentStart           int
	tokenIndex               int
	tokenIncrement           int
	groupDepth               int
	hostnameIPv6BracketDepth int
	state                    state
}

// https://wicg.github.io/urlpattern/#constructor-string-parser-state
type state uint8

const (
	sInit state = iota
	protocol
	authority
	username
	password
	hostname
	port
	pathname
	search
	hash
	done
)

func newConstructorTypeParser(input string, tokenList []token) constructorTypeParser {
	return constructorTypeParser{
		input:          *utf8string.NewString(input),
		tokenList:      tokenList,
		result:         URLPatternInit{},
		tokenIncrement: 1,
		state:          sInit,
	}
}

// https://wicg.github.io/urlpattern/#parse-a-constructor-string
func parseConstructorString(input string) (out URLPatternInit, err error) {
	tl, tokErr := tokenize(input, tokenizePolicyLenient)
	if tokErr != nil {
		return URLPatternInit{}, wrapConstructionError(input, 0, tokErr)
	}

	p := newConstructorTypeParser(input, tl)

	// Every early return below surfaces through here so a failure anywhere
	// in the constructor-string parse carries the documented "illegal
	// pattern near index N: <input>" message.
	defer func() {
		if err != nil {
			err = wrapConstructionError(input, p.cursorIndex(), err)
		}
	}()

	tlLen := len(p.tokenList)

	for p.tokenIndex < tlLen {
		p.tokenIncrement = 1

		if p.tokenList[p.tokenIndex].tType == tokenEnd {
			if p.state == sInit {
				p.rewind()

				if p.isHashPrefix() {
					p.changeState(hash, 1)
				} else if p.isSearchPrefix() {
					p.changeState(search, 1)
				} else {
					p.changeState(pathname, 0)
				}

				p.tokenIndex += p.tokenIncrement

				continue
			}

			if p.state == authority {
				p.rewindAndSetState(hostname)
				p.tokenIndex += p.tokenIncrement

				continue
			}

			p.changeState(done, 0)

			break
		}

		if p.isGroupOpen() {
			p.groupDepth++
			p.tokenIndex += p.tokenIncrement

			continue
		}

		if p.groupDepth > 0 {
			if p.isGroupClose() {
				p.groupDepth--
			} else {
				p.tokenIndex += p.tokenIncrement

				continue
			}
		}

		switch p.state {
		case sInit:
			if p.isProtocolSuffix() {
				p.result.Hash = strPtr("")
				p.result.Search = strPtr("")
				p.result.Pathname = strPtr("")
				p.result.Port = strPtr("")
				p.result.Hostname = strPtr("")
				p.result.Password = strPtr("")
				p.result.Username = strPtr("")
				p.rewindAndSetState(protocol)
			}

		case authority:
			if p.isIdentityTerminator() {
				p.rewindAndSetState(username)
			} else if p.isPathnameStart() || p.isSearchPrefix() || p.isHashPrefix() {
				p.rewindAndSetState(hostname)
			}

		case protocol:
			if p.isProtocolSuffix() {
				protocolString := p.makeComponentString()

				mayBeSpecial, err := protocolMayBeSpecial(protocolString)
				if err != nil {
					return URLPatternInit{}, err
				}

				followedByDoubleSlashes := p.isFollowedByDoubleSlashes()
				followedByPathname := !followedByDoubleSlashes && !mayBeSpecial

				nextState := authority
				skip := 1
				if followedByDoubleSlashes {
					skip = 3
				} else if followedByPathname {
					nextState = pathname
				}

				if mayBeSpecial {
					p.result.Pathname = strPtr("/")
				}

				p.changeState(nextState, skip)
			}

		case username:
			if p.isPasswordPrefix() {
				p.changeState(password, 1)
			} else if p.isIdentityTerminator() {
				p.changeState(hostname, 1)
			}

		case password:
			if p.isIdentityTerminator() {
				p.changeState(hostname, 1)
			}

		case hostname:
			if p.isIPv6Open() {
				p.hostnameIPv6BracketDepth++
			} else if p.isIPv6Close() {
				p.hostnameIPv6BracketDepth--
			} else if p.isPortPrefix() && p.hostnameIPv6BracketDepth == 0 {
				p.changeState(port, 1)
			} else if p.isPathnameStart() {
				p.changeState(pathname, 0)
			} else if p.isSearchPrefix() {
				p.changeState(search, 1)
			} else if p.isHashPrefix() {
				p.changeState(hash, 1)
			}

		case port:
			if p.isPathnameStart() {
				p.changeState(pathname, 0)
			} else if p.isSearchPrefix() {
				p.changeState(search, 1)
			} else if p.isHashPrefix() {
				p.changeState(hash, 1)
			}

		case pathname:
			if p.isSearchPrefix() {
				p.changeState(search, 1)
			} else if p.isHashPrefix() {
				p.changeState(hash, 1)
			}

		case search:
			if p.isHashPrefix() {
				p.changeState(hash, 1)
			}

		case hash:
			// do nothing
		}

		p.tokenIndex += p.tokenIncrement
	}

	return p.result, nil
}

// protocolMayBeSpecial reports whether the compiled protocol sub-pattern
// could match one of the special scheme names. It transiently compiles the
// protocol component the same way construction eventually will, discarding
// the result once the match test is done.
func protocolMayBeSpecial(protocolPattern string) (bool, error) {
	if protocolPattern == "" {
		protocolPattern = "*"
	}

	parts, err := parsePatternString(protocolPattern, componentOptions{}, canonicalizeProtocol)
	if err != nil {
		return false, err
	}

	regexpValue, _, err := parts.generateRegularExpressionAndNameList(componentOptions{})
	if err != nil {
		return false, err
	}

	re, err := regexp.Compile(regexpValue)
	if err != nil {
		return false, err
	}

	for scheme := range DefaultPorts {
		if re.MatchString(scheme) {
			return true, nil
		}
	}

	return false, nil
}

// cursorIndex reports the rune position of the token the parser was
// looking at when it stopped, for use in a construction-error message.
func (p *constructorTypeParser) cursorIndex() int {
	if p.tokenIndex < len(p.tokenList) {
		return p.tokenList[p.tokenIndex].index
	}

	if len(p.tokenList) > 0 {
		return p.tokenList[len(p.tokenList)-1].index
	}

	return 0
}

func (p *constructorTypeParser) rewind() {
	p.tokenIndex = p.componentStart
	p.tokenIncrement = 0
}

func (p *constructorTypeParser) rewindAndSetState(s state) {
	p.rewind()
	p.state = s
}

func (p *constructorTypeParser) isHashPrefix() bool {
	return p.isNonSpecialPatternChar(p.tokenIndex, "#")
}

func (p *constructorTypeParser) isSearchPrefix() bool {
	if p.isNonSpecialPatternChar(p.tokenIndex, "?") {
		return true
	}

	if p.tokenList[p.tokenIndex].value != "?" {
		return false
	}

	previousIndex := p.tokenIndex - 1
	if previousIndex < 0 {
		return true
	}

	previousToken := p.getSafeToken(previousIndex)
	switch previousToken.tType {
	case tokenName:
		return false

	case tokenRegexp:
		return false

	case tokenClose:
		return false

	case tokenAsterisk:
		return false
	}

	return true
}

func (p *constructorTypeParser) isProtocolSuffix() bool {
	return p.isNonSpecialPatternChar(p.tokenIndex, ":")
}

func (p *constructorTypeParser) isIdentityTerminator() bool {
	return p.isNonSpecialPatternChar(p.tokenIndex, "@")
}

func (p *constructorTypeParser) isPasswordPrefix() bool {
	return p.isNonSpecialPatternChar(p.tokenIndex, ":")
}

func (p *constructorTypeParser) isPortPrefix() bool {
	return p.isNonSpecialPatternChar(p.tokenIndex, ":")
}

func (p *constructorTypeParser) isPathnameStart() bool {
	return p.isNonSpecialPatternChar(p.tokenIndex, "/")
}

func (p *constructorTypeParser) isIPv6Open() bool {
	return p.isNonSpecialPatternChar(p.tokenIndex, "[")
}

func (p *constructorTypeParser) isIPv6Close() bool {
	return p.isNonSpecialPatternChar(p.tokenIndex, "]")
}

func (p *constructorTypeParser) isGroupOpen() bool {
	return p.tokenList[p.tokenIndex].tType == tokenOpen
}

func (p *constructorTypeParser) isGroupClose() bool {
	return p.tokenList[p.tokenIndex].tType == tokenClose
}

// https://wicg.github.io/urlpattern/#is-a-non-special-pattern-char
func (p *constructorTypeParser) isNonSpecialPatternChar(index int, value string) bool {
	token := p.getSafeToken(index)
	if token.value != value {
		return false
	}

	return token.tType == tokenChar || token.tType == tokenEscapedChar || token.tType == tokenInvalidChar
}

func (p *constructorTypeParser) getSafeToken(index int) token {
	len := len(p.tokenList)

	if index < len {
		return p.tokenList[index]
	}

	return p.tokenList[len-1]
}

// isFollowedByDoubleSlashes reports whether the two tokens after the current
// one are literal "/" characters, used to decide whether a protocol is
// followed by "://".
func (p *constructorTypeParser) isFollowedByDoubleSlashes() bool {
	if !p.isSlashAt(p.tokenIndex + 1) {
		return false
	}

	return p.isSlashAt(p.tokenIndex + 2)
}

func (p *constructorTypeParser) isSlashAt(index int) bool {
	if index >= len(p.tokenList) {
		return false
	}

	t := p.tokenList[index]

	return t.value == "/" && (t.tType == tokenChar || t.tType == tokenEscapedChar || t.tType == tokenInvalidChar)
}

func (p *constructorTypeParser) changeState(newState state, skip int) {
	switch p.state {
	case protocol:
		p.result.Protocol = strPtr(p.makeComponentString())
	case username:
		p.result.Username = strPtr(p.makeComponentString())
	case password:
		p.result.Password = strPtr(p.makeComponentString())
	case hostname:
		p.result.Hostname = strPtr(p.makeComponentString())
	case port:
		p.result.Port = strPtr(p.makeComponentString())
	case pathname:
		p.result.Pathname = strPtr(p.makeComponentString())
	case search:
		p.result.Search = strPtr(p.makeComponentString())
	case hash:
		p.result.Hash = strPtr(p.makeComponentString())
	}

	p.state = newState
	p.tokenIndex = p.tokenIndex + skip
	p.componentStart = p.tokenIndex
	p.tokenIncrement = 0
}

func (p *constructorTypeParser) makeComponentString() string {
	token := p.tokenList[p.tokenIndex]
	componentStartToken := p.getSafeToken(p.componentStart)
	componentStartInputIndex := componentStartToken.index
	endIndex := token.index

	return p.input.Slice(componentStartInputIndex, endIndex)
}

func strPtr(s string) *string {
	return &s
}

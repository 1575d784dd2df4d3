/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
Package ipfix implements encoding and decoding of IPFIX (RFC 7011) messages,
built around a compiled placement model rather than a decode-then-convert
pipeline.

# Overview

An IPFIX message carries one or more sets. A set is either a template set
(ID 2), an options template set (ID 3), or a data set (any ID from 256
upward, bound by a previously received template). Each set contains one or
more records of its kind; each data record's fields are typed according to
the information elements named by its governing template, drawn from the
IANA registry (enterprise number 0) or a vendor-specific enterprise PEN.

Templates and data are coupled but transmitted separately: a data set's
fields cannot be interpreted without first having seen (and kept active)
the template it references. This package's Session tracks that state per
(transport session, observation domain) pair, as RFC 7011 requires.

# Placement model

Rather than decoding every field into a generic value and letting callers
convert it afterward, this package lets a caller register a
PlacementTemplate: a set of information elements bound directly to
addresses in caller-owned Go values. When a wire template is registered and
there is a PlacementTemplate whose elements are a subset of it (in any
order), the two are compiled once into a Plan — a flat sequence of
transfer instructions — and every subsequent data record governed by that
template is decoded, or encoded, by running the plan with no further
lookups or branching per field. The IEType enum (see ietype.go) replaces a
per-type class with an exhaustive, allocation-free switch, which is what
makes compiling the hot path down to a flat instruction list possible.

# Historical background

This package grew out of a collector and flow-processing toolkit built
around IPFIX and enterprise-specific information elements, in particular
in combination with structured data types such as those yaf
(https://tools.netsa.cert.org/yaf/) attaches for DPI information. TCP and
UDP listeners are included because, while UDP collection is a direct fit
for net.PacketConn, TCP collection over IPFIX's single long-lived
connection needs deframing logic of its own; both are exposed through the
same InputSource contract so a Parse driver does not need to care which
transport it is reading from.

# Sequencing and recovery

Each observation domain carries its own message sequence number. A gap
between an incoming message's sequence number and the one expected for its
domain is reported to the ContentHandler as a recoverable condition, not
treated as fatal: exporters may restart mid-sequence, and a collector
should keep decoding rather than abandon a session over it. Malformed sets
are likewise recoverable where possible: Parse skips to the next set
boundary rather than abandoning the remainder of a message.
*/
package ipfix

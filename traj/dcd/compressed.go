/*
 * compressed.go, part of watmap.
 *
 * Copyright 2023 Raul Mera A. (raulpuntomeraatusachpuntocl)
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package dcd

import (
	"bufio"
	"io"
	"log"
	"os"
	"strings"

	gzip "github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

//*zstd.Decoder does not implement io.ReadCloser, as its Close returns
//nothing, so it gets a little wrapper.
type zstdql struct {
	closeql func()
	*zstd.Decoder
}

//Close closes the decoder. It can not be used after this call.
func (s zstdql) Close() error {
	s.closeql()
	return nil
}

//prepSource takes a filename and a format string, opens the file and returns
//an object that will read data from it, either 'as is' or decompressing
//first, depending on the format string. If the format string is empty, the
//format is deduced from the file extension. Extensions supported are .dcd
//(plain), .gz (gzip) and .zst or .zstd (zstandard). If the extension doesn't
//match any supported type, a message is logged and a plain DCD is assumed.
func (D *DCDObj) prepSource(fname string, format string) (io.Reader, error) {
	var fk string
	if format == "" {
		temp := strings.Split(fname, ".")
		fk = strings.ToLower(temp[len(temp)-1])
	} else {
		fk = format
	}
	D.filename = fname
	var err error
	D.fhandle, err = os.Open(fname)
	if err != nil {
		return nil, Error{err.Error(), D.filename, []string{"os.Open", "prepSource"}, true}
	}
	reader := bufio.NewReader(D.fhandle)
	switch fk {
	case "dcd":
		return reader, nil
	case "gz":
		r, err := gzip.NewReader(reader)
		if err != nil {
			return nil, Error{err.Error(), D.filename, []string{"gzip.NewReader", "prepSource"}, true}
		}
		return r, nil
	case "zst", "zstd":
		r, err := zstd.NewReader(reader)
		if err != nil {
			return nil, Error{err.Error(), D.filename, []string{"zstd.NewReader", "prepSource"}, true}
		}
		return &zstdql{r.Close, r}, nil
	default:
		//if it's not actually a plain DCD, you'll get an error later.
		log.Printf("Extension %s not supported. %s will be assumed to be a plain DCD file", fk, D.filename)
		return reader, nil
	}
}
